package db

import (
	"context"
	"sync"
)

// MemoryRepository keeps documents in process memory
type MemoryRepository struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	writes int

	// FailWrites makes Put return this error, for tests.
	FailWrites error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string][]byte)}
}

func (m *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (m *MemoryRepository) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.docs[key] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }

// Writes counts successful Put calls
func (m *MemoryRepository) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
