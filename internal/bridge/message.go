// Package bridge carries the small closed protocol between the background
// daemon (which owns persisted configuration) and the page agent (which runs
// the injection pipeline), over a websocket. It also holds the agent-side
// configuration cell the articulation chains snapshot from.
package bridge

import (
	"encoding/json"
	"fmt"

	"articulate/internal/provider"
)

// MessageType discriminates the protocol's message kinds.
type MessageType string

const (
	// MsgContentScriptLoaded announces an agent; the daemon answers with the
	// stored configuration, or logs that setup is still needed.
	MsgContentScriptLoaded MessageType = "CONTENT_SCRIPT_LOADED"
	// MsgInitUserConfig seeds the agent's configuration slot on startup.
	MsgInitUserConfig MessageType = "INIT_USER_CONFIG"
	// MsgUserConfigUpdated replaces the agent's configuration slot.
	MsgUserConfigUpdated MessageType = "USER_CONFIG_UPDATED"
	// MsgForceReinject re-runs the injection sweep without a config change.
	MsgForceReinject MessageType = "FORCE_REINJECT"
)

// Message is one protocol frame. Config is present only on the two
// configuration-bearing kinds.
type Message struct {
	Type   MessageType           `json:"type"`
	Config *provider.Credentials `json:"config,omitempty"`
}

// Decode parses a frame. Unknown types are not an error here; receivers log
// and ignore them, so the protocol can grow without breaking old peers.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode bridge frame: %w", err)
	}
	if m.Type == "" {
		return m, fmt.Errorf("bridge frame missing type")
	}
	return m, nil
}

// Encode serializes a frame.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
