package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"articulate/internal/logging"
	"articulate/internal/provider"
	"articulate/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge only listens on loopback; the agent is the sole peer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// Server is the daemon side of the bridge. It answers agent announcements
// with the stored configuration and broadcasts configuration changes and
// forced re-injection requests to every connected agent.
type Server struct {
	store *store.Store
	log   logging.Scoped

	mu    sync.Mutex
	conns map[string]*serverConn
}

type serverConn struct {
	id   string
	ws   *websocket.Conn
	send chan Message
}

// NewServer creates a Server and hooks the store so every credential
// overwrite is broadcast as USER_CONFIG_UPDATED.
func NewServer(st *store.Store) *Server {
	s := &Server{
		store: st,
		log:   logging.Scope("bridge"),
		conns: make(map[string]*serverConn),
	}
	st.OnChange(func(key string) {
		if key != store.UserConfigKey {
			return
		}
		creds, err := st.LoadCredentials(context.Background())
		if err != nil {
			s.log.Errorf("load credentials after change: %v", err)
			return
		}
		s.Broadcast(Message{Type: MsgUserConfigUpdated, Config: creds})
	})
	return s
}

// Router returns the daemon's HTTP surface: the websocket bridge, a health
// probe, and a reinjection trigger.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/bridge", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/reinject", func(w http.ResponseWriter, _ *http.Request) {
		s.Broadcast(Message{Type: MsgForceReinject})
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/config", s.handlePutConfig)
	return r
}

// handlePutConfig persists new credentials. The store change hook takes care
// of broadcasting USER_CONFIG_UPDATED.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var creds provider.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid credentials payload", http.StatusBadRequest)
		return
	}
	if creds.Provider == "" || creds.Model == "" || creds.APIKey == "" {
		http.Error(w, "provider, model, and api_key are required", http.StatusBadRequest)
		return
	}
	if err := s.store.SaveCredentials(r.Context(), creds); err != nil {
		s.log.Errorf("save credentials: %v", err)
		http.Error(w, "failed to store credentials", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Broadcast queues a frame for every connected agent. A peer with a full
// queue is skipped rather than blocking the others.
func (s *Server) Broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		select {
		case c.send <- msg:
		default:
			s.log.Warnf("dropping frame for slow agent %s", c.id)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade: %v", err)
		return
	}

	conn := &serverConn{
		id:   "agent-" + uuid.NewString()[:8],
		ws:   ws,
		send: make(chan Message, 16),
	}

	s.mu.Lock()
	s.conns[conn.id] = conn
	s.mu.Unlock()
	s.log.Infof("agent connected: %s", conn.id)

	go s.writeLoop(conn)
	s.readLoop(conn)

	s.mu.Lock()
	delete(s.conns, conn.id)
	s.mu.Unlock()
	close(conn.send)
	s.log.Infof("agent disconnected: %s", conn.id)
}

// writeLoop is the single writer for the connection.
func (s *Server) writeLoop(c *serverConn) {
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.ws.WriteJSON(msg); err != nil {
			s.log.Warnf("write to %s: %v", c.id, err)
			return
		}
	}
}

func (s *Server) readLoop(c *serverConn) {
	defer c.ws.Close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		msg, err := Decode(data)
		if err != nil {
			s.log.Warnf("bad frame from %s: %v", c.id, err)
			continue
		}
		s.handle(c, msg)
	}
}

func (s *Server) handle(c *serverConn, msg Message) {
	switch msg.Type {
	case MsgContentScriptLoaded:
		creds, err := s.store.LoadCredentials(context.Background())
		if err != nil {
			s.log.Errorf("load credentials: %v", err)
			return
		}
		if creds == nil {
			s.log.Infof("agent %s announced but no configuration is stored; run setup", c.id)
			return
		}
		select {
		case c.send <- Message{Type: MsgInitUserConfig, Config: creds}:
		default:
			s.log.Warnf("dropping init frame for slow agent %s", c.id)
		}

	case MsgInitUserConfig, MsgUserConfigUpdated, MsgForceReinject:
		// Daemon-to-agent kinds arriving here are a confused peer.
		s.log.Warnf("unexpected %s from agent %s", msg.Type, c.id)

	default:
		s.log.Infof("ignoring unknown message type %q from %s", msg.Type, c.id)
	}
}
