// Package tokenstore holds the durable backends for the session bearer
// token: an in-memory store for tests and ephemeral runs, a file store
// (optionally sealed with a secret), and a SQLite store.
package tokenstore

import (
	"context"
	"sync"
)

// Memory keeps the token in process memory only.
type Memory struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
