package storage

import (
	"context"
	"sync"
)

// Memory keeps the record in process memory. Nothing survives a restart.
type Memory struct {
	mu  sync.Mutex
	rec Record
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, nil
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{}
	return nil
}
