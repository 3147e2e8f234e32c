package bridge

import (
	"sync"

	"articulate/internal/provider"
)

// Cell is the agent's process-wide configuration slot. It has exactly one
// writer (the bridge client) and is replaced wholesale on every update,
// never field-merged. Readers snapshot it at the start of a chain; a chain
// that began before an update completes with the old value. Last write wins.
type Cell struct {
	mu    sync.RWMutex
	creds *provider.Credentials
}

// Set replaces the slot.
func (c *Cell) Set(creds *provider.Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// Snapshot returns a copy of the current credentials, or nil when unset.
// The copy keeps an in-flight chain immune to later updates.
func (c *Cell) Snapshot() *provider.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.creds == nil {
		return nil
	}
	cp := *c.creds
	return &cp
}
