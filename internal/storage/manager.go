package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	// SQLite driver registered by import, referenced only in the DSN.
	_ "github.com/mattn/go-sqlite3"

	"codecollab/pkg/interfaces"
)

// tokenKey is the single well-known key the bearer credential lives under.
const tokenKey = "token"

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Manager is a keyed local store backed by SQLite, the client-side analogue
// of keyed browser storage. All writes funnel through a single goroutine so
// SQLite never sees write contention.
type Manager struct {
	db           *sql.DB
	timeout      time.Duration
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens (and if needed creates) the store at path.
func NewManager(path string, timeout time.Duration) (*Manager, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open client store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize client store schema: %w", err)
	}

	m := &Manager{
		db:           db,
		timeout:      timeout,
		writeChannel: make(chan writeOperation, 16),
		shutdown:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

// writeLoop processes all write operations in a single goroutine.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			op.result <- op.operation(m.db)
		case <-m.shutdown:
			return
		}
	}
}

// executeWrite queues a write operation and waits for completion.
func (m *Manager) executeWrite(operation func(*sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("client store is closed")
	}
	m.mu.RUnlock()

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		return <-result
	case <-time.After(m.timeout):
		return fmt.Errorf("client store write timeout")
	case <-m.shutdown:
		return fmt.Errorf("client store is shutting down")
	}
}

// Put stores value under key, replacing any previous value.
func (m *Manager) Put(ctx context.Context, key, value string) error {
	return m.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		return nil
	})
}

// Get returns the value under key, or interfaces.ErrNoCredential when the
// key is absent.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", interfaces.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key if present. Deleting an absent key is not an error.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.executeWrite(func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	})
}

// SaveToken persists the opaque bearer credential.
func (m *Manager) SaveToken(ctx context.Context, token string) error {
	return m.Put(ctx, tokenKey, token)
}

// LoadToken returns the stored credential, or interfaces.ErrNoCredential.
func (m *Manager) LoadToken(ctx context.Context) (string, error) {
	return m.Get(ctx, tokenKey)
}

// ClearToken drops the stored credential. Idempotent.
func (m *Manager) ClearToken(ctx context.Context) error {
	return m.Delete(ctx, tokenKey)
}

// Close shuts down the write loop and closes the database. Safe to call more
// than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	log.Println("Client store closed")
	return m.db.Close()
}

var _ interfaces.CredentialStore = (*Manager)(nil)
