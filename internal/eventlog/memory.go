package eventlog

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Log. History is lost on process restart.
// It is the default backend and is what the broker's test suite
// exercises directly.
type Memory struct {
	mu     sync.RWMutex
	events map[byte][]StoredEvent
}

// NewMemory returns an empty in-memory log.
func NewMemory() *Memory {
	return &Memory{events: make(map[byte][]StoredEvent)}
}

// Append stores payload under typeID. CreatedAt is assigned from the
// wall clock; concurrent appends to the same type are serialized by mu.
func (m *Memory) Append(_ context.Context, typeID byte, payload []byte) (StoredEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := StoredEvent{
		TypeID:    typeID,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now().UnixNano(),
	}
	m.events[typeID] = append(m.events[typeID], ev)
	return ev, nil
}

// ListAscending returns a snapshot copy of the stored events for typeID.
func (m *Memory) ListAscending(_ context.Context, typeID byte) ([]StoredEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.events[typeID]
	out := make([]StoredEvent, len(src))
	copy(out, src)
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (m *Memory) Close() {}
