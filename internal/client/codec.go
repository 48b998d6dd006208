package client

import "log"

// Event is an application-level outbound event: it knows its own wire
// type identifier and can serialize its body.
type Event interface {
	TypeID() byte
	MarshalBinary() ([]byte, error)
}

// Deserializer turns a CONSUME payload's body (everything after the
// leading type byte) into an application-level event object.
type Deserializer func(body []byte) (any, error)

// Handler receives a decoded event object. A handler that panics is
// recovered and logged by Dispatch; it never prevents remaining
// handlers from running.
type Handler func(event any)

type codecEntry struct {
	deserialize Deserializer
	handlers    []Handler
}

// CodecRegistry is the client-side type_identifier -> (deserializer,
// handlers) table. It satisfies the Receiver interface a Connection
// dispatches incoming CONSUME payloads to.
type CodecRegistry struct {
	entries map[byte]*codecEntry
}

// NewCodecRegistry returns an empty registry.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{entries: make(map[byte]*codecEntry)}
}

// Register wires a deserializer and handler for typeID. Calling
// Register again for the same typeID appends an additional handler;
// all registered handlers for a type run on every matching payload.
func (r *CodecRegistry) Register(typeID byte, deserialize Deserializer, handler Handler) {
	e, ok := r.entries[typeID]
	if !ok {
		e = &codecEntry{deserialize: deserialize}
		r.entries[typeID] = e
	}
	e.handlers = append(e.handlers, handler)
}

// Types reports every type_identifier this registry has handlers for,
// so the client entry point can populate the REGISTER_CONSUMERS
// payload.
func (r *CodecRegistry) Types() []byte {
	out := make([]byte, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	return out
}

// Dispatch decodes payload (a full CONSUME payload, leading type byte
// included) and invokes every handler registered for its type. Unknown
// types are discarded silently; deserialization failures and handler
// panics are logged and do not propagate.
func (r *CodecRegistry) Dispatch(payload []byte) {
	if len(payload) < 1 {
		return
	}
	typeID := payload[0]
	e, ok := r.entries[typeID]
	if !ok {
		return
	}

	event, err := e.deserialize(payload[1:])
	if err != nil {
		log.Printf("client: deserialize type %d: %v", typeID, err)
		return
	}

	for _, h := range e.handlers {
		invokeHandler(h, event)
	}
}

// invokeHandler recovers from a panicking handler so one misbehaving
// handler can't kill the receive loop or block the remaining handlers.
func invokeHandler(h Handler, event any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("client: handler panic: %v", r)
		}
	}()
	h(event)
}
