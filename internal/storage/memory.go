package storage

import (
	"context"
	"sync"
)

// MemoryStore implements Store in memory
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read implements Store
func (m *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	return clone(m.data), nil
}

// Write implements Store
func (m *MemoryStore) Write(ctx context.Context, data []byte) error {
	return m.Update(ctx, func([]byte) ([]byte, error) { return data, nil })
}

// Update implements Store
func (m *MemoryStore) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if m.set {
		current = clone(m.data)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.data = clone(next)
	m.set = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
