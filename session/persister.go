package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoRecord is returned by [Persister.Load] when nothing has been persisted.
var ErrNoRecord = errors.New("session: no persisted record")

// Persister stores the encoded session record. Implementations must be safe
// for concurrent use.
type Persister interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
	Clear(ctx context.Context) error
}

// NopPersister discards writes and never has a record.
type NopPersister struct{}

func (NopPersister) Save(context.Context, []byte) error { return nil }
func (NopPersister) Load(context.Context) ([]byte, error) { return nil, ErrNoRecord }
func (NopPersister) Clear(context.Context) error { return nil }

// MemoryPersister keeps the record in process memory.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersister) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoRecord
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
