// Package client implements the producer/consumer side of the event
// bus wire protocol: dialing the broker, registering local receivers,
// queueing publishes issued before the socket is ready, and publishing
// or dispatching events once connected.
package client

import (
	"log"
	"sync"
)

// EntryPoint is the application-facing object: it dials the broker in
// the background, buffers Publish calls made before the connection is
// ready, and drains them in FIFO order once connected. Automatic
// reconnect on a later failure is out of scope; once dial succeeds or
// fails, the EntryPoint does not retry on its own.
type EntryPoint struct {
	mu      sync.Mutex
	conn    *Connection
	pending []Event
}

// Start constructs the entry point and dials addr in the background,
// returning immediately. The caller is free to call Publish before the
// dial completes — such calls buffer on the pending queue and are
// drained, in FIFO order, once the connection is ready. On dial
// failure the error is logged and queued events remain pending;
// automatic reconnect is out of scope.
func Start(addr string, replayRequested bool, receivers ...Receiver) *EntryPoint {
	ep := &EntryPoint{}
	go ep.connect(addr, replayRequested, receivers...)
	return ep
}

func (ep *EntryPoint) connect(addr string, replayRequested bool, receivers ...Receiver) {
	conn, err := Dial(addr, replayRequested, receivers...)
	if err != nil {
		log.Printf("client: connect to %s failed: %v", addr, err)
		return
	}

	// Drain while holding mu and only then mark the connection ready, so
	// a concurrent Publish cannot overtake events still in the queue.
	ep.mu.Lock()
	defer ep.mu.Unlock()
	for _, e := range ep.pending {
		if err := conn.Publish(e); err != nil {
			log.Printf("client: draining queued publish failed: %v", err)
		}
	}
	ep.pending = nil
	ep.conn = conn
}

// Publish sends event immediately if the connection is ready,
// otherwise appends it to the FIFO pending queue for delivery once
// Start's dial completes. Events from a single caller are always
// delivered to the broker in the order Publish was called.
func (ep *EntryPoint) Publish(event Event) error {
	ep.mu.Lock()
	conn := ep.conn
	if conn == nil {
		ep.pending = append(ep.pending, event)
		ep.mu.Unlock()
		return nil
	}
	ep.mu.Unlock()

	return conn.Publish(event)
}

// Close closes the underlying connection, if any.
func (ep *EntryPoint) Close() error {
	ep.mu.Lock()
	conn := ep.conn
	ep.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
