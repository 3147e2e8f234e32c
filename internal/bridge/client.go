package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"articulate/internal/logging"
)

// Client is the agent side of the bridge. It announces itself, then feeds
// incoming configuration frames into the Cell and fires the registered
// callbacks.
type Client struct {
	url  string
	cell *Cell
	log  logging.Scoped

	// onConfig runs after the cell is seeded or replaced (injection sweep).
	onConfig func()
	// onReinject runs on a forced re-injection request.
	onReinject func()
}

// NewClient creates a Client. Either callback may be nil.
func NewClient(url string, cell *Cell, onConfig, onReinject func()) *Client {
	return &Client{
		url:        url,
		cell:       cell,
		log:        logging.Scope("bridge"),
		onConfig:   onConfig,
		onReinject: onReinject,
	}
}

// Run dials the daemon, announces the agent, and processes frames until the
// context is cancelled or the connection drops.
func (c *Client) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial bridge %s: %w", c.url, err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	if err := ws.WriteJSON(Message{Type: MsgContentScriptLoaded}); err != nil {
		return fmt.Errorf("announce agent: %w", err)
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge read: %w", err)
		}
		msg, err := Decode(data)
		if err != nil {
			c.log.Warnf("bad frame: %v", err)
			continue
		}
		c.Handle(msg)
	}
}

// Handle applies one frame. Exported so an embedded runtime can drive the
// protocol without a socket.
func (c *Client) Handle(msg Message) {
	switch msg.Type {
	case MsgInitUserConfig, MsgUserConfigUpdated:
		if msg.Config == nil {
			c.log.Warnf("%s frame without config, ignoring", msg.Type)
			return
		}
		c.cell.Set(msg.Config)
		c.log.Infof("configuration slot replaced (%s, provider=%s)", msg.Type, msg.Config.Provider)
		if c.onConfig != nil {
			c.onConfig()
		}

	case MsgForceReinject:
		if c.onReinject != nil {
			c.onReinject()
		}

	case MsgContentScriptLoaded:
		// Agent-to-daemon kind; a daemon echoing it is harmless.
		c.log.Infof("ignoring %s frame from daemon", msg.Type)

	default:
		c.log.Infof("ignoring unknown message type %q", msg.Type)
	}
}
