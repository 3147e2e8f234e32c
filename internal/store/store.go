// Package store persists user configuration in a small SQLite key-value
// table. Change hooks let the daemon broadcast updates the moment a key is
// overwritten.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"articulate/internal/provider"
)

// UserConfigKey is the single well-known key holding AI credentials.
const UserConfigKey = "user_config"

// Store is a SQLite-backed key-value store.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	hooks []func(key string)
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnChange registers a hook fired after every successful Put.
func (s *Store) OnChange(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Get returns the stored value and whether the key exists.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put stores or overwrites the value and fires the change hooks.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	s.mu.Lock()
	hooks := make([]func(string), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(key)
	}
	return nil
}

// LoadCredentials returns the persisted AI configuration, or nil when setup
// has not happened yet.
func (s *Store) LoadCredentials(ctx context.Context) (*provider.Credentials, error) {
	data, ok, err := s.Get(ctx, UserConfigKey)
	if err != nil || !ok {
		return nil, err
	}
	var creds provider.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decode %s: %w", UserConfigKey, err)
	}
	return &creds, nil
}

// SaveCredentials overwrites the persisted AI configuration.
func (s *Store) SaveCredentials(ctx context.Context, creds provider.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode %s: %w", UserConfigKey, err)
	}
	return s.Put(ctx, UserConfigKey, data)
}
