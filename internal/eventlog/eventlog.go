// Package eventlog provides the broker's append-only, per-type ordered
// event storage. Two implementations are provided: an in-memory log
// (the default) and a PostgreSQL-backed log for durability across
// broker restarts.
package eventlog

import "context"

// StoredEvent is one entry appended to the log for a given type.
type StoredEvent struct {
	TypeID    byte
	Payload   []byte // the full PUBLISH payload, including its leading type byte
	CreatedAt int64  // unix nanoseconds, monotonic per type
}

// Log is the storage abstraction the broker's connection handler
// depends on. Implementations must serialize appends per
// type and must not interleave entries out of order within a single
// List call.
type Log interface {
	// Append stores payload under typeID and returns the resulting
	// StoredEvent (with CreatedAt assigned).
	Append(ctx context.Context, typeID byte, payload []byte) (StoredEvent, error)

	// ListAscending returns every payload ever appended for typeID, in
	// append order. A snapshot consistent at call time is sufficient;
	// entries appended concurrently with the call may or may not be
	// included, but must never appear out of order.
	ListAscending(ctx context.Context, typeID byte) ([]StoredEvent, error)

	// Close releases any resources held by the log.
	Close()
}
