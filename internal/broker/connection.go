package broker

import (
	"context"
	"log"
	"net"
	"sync"

	"github.com/primal-host/eventbus/internal/eventlog"
	"github.com/primal-host/eventbus/internal/metrics"
	"github.com/primal-host/eventbus/internal/registry"
	"github.com/primal-host/eventbus/internal/wire"
)

// state is the per-connection state machine position.
type state int

const (
	stateAwaitingRegistration state = iota
	stateActive
	stateClosed
)

// outboxSize bounds how many pending outbound frames (fan-out writes
// and replay history) a single slow subscriber can accumulate before
// frames to it start being dropped.
const outboxSize = 256

// publishQueueSize bounds how many PUBLISH frames a connection may
// have queued for append+fan-out before handlePublish itself starts
// applying backpressure to that connection's read loop.
const publishQueueSize = 256

// connection is the broker-side owner of one accepted socket. It
// parses inbound frames on its own goroutine, drives the
// AWAITING_REGISTRATION -> ACTIVE -> CLOSED state machine, and
// satisfies registry.Subscriber so the publisher can fan out to it.
type connection struct {
	conn net.Conn

	log       eventlog.Log
	registry  *registry.Registry
	publisher *Publisher
	workers   *WorkerPool

	mu    sync.Mutex
	state state

	// outbox decouples writing a frame to this socket from whatever
	// goroutine produced it (the publisher's fan-out, a replay job).
	// A dedicated writer goroutine drains it, so one slow or dead peer
	// only ever stalls its own outbox, never the caller.
	outbox chan []byte

	// publishQueue carries PUBLISH payloads from the I/O goroutine to
	// a dedicated per-connection goroutine that appends and fans each
	// one out in the order it was received, one at a time.
	publishQueue chan []byte

	closeOnce sync.Once
}

func newConnection(c net.Conn, log eventlog.Log, reg *registry.Registry, pub *Publisher, workers *WorkerPool) *connection {
	return &connection{
		conn:         c,
		log:          log,
		registry:     reg,
		publisher:    pub,
		workers:      workers,
		state:        stateAwaitingRegistration,
		outbox:       make(chan []byte, outboxSize),
		publishQueue: make(chan []byte, publishQueueSize),
	}
}

// Send implements registry.Subscriber. It enqueues frame onto this
// connection's outbox and returns immediately. If the outbox is full
// — a slow or stalled peer not draining its socket — the frame is
// dropped and the connection is torn down rather than blocking the
// caller (the publisher's fan-out to every other subscriber, or a
// replay job), per the bus's best-effort, non-blocking write contract.
func (c *connection) Send(frame []byte) {
	select {
	case c.outbox <- frame:
	default:
		log.Printf("broker: outbox full, dropping connection to slow subscriber")
		c.conn.Close()
	}
}

// writeLoop is the sole writer of this connection's socket. It drains
// outbox in order, so frames from different producers (publisher
// fan-out, replay) still arrive on the wire in the order they were
// enqueued onto this one connection.
func (c *connection) writeLoop() {
	for frame := range c.outbox {
		if _, err := c.conn.Write(frame); err != nil {
			c.conn.Close()
			return
		}
	}
}

// publishLoop drains publishQueue strictly in the order handlePublish
// enqueued frames on the I/O goroutine, so append+fan-out for this
// connection's PUBLISH frames always runs in arrival order — even
// though the actual append and fan-out work still executes on the
// shared worker pool, which bounds concurrent storage calls across all
// connections.
func (c *connection) publishLoop(ctx context.Context) {
	for payload := range c.publishQueue {
		done := make(chan struct{})
		c.workers.Submit(func() {
			defer close(done)
			c.appendAndPublish(ctx, payload)
		})
		<-done
	}
}

func (c *connection) appendAndPublish(ctx context.Context, payload []byte) {
	typeID := payload[0]
	_, err := c.log.Append(ctx, typeID, payload)
	if err != nil {
		log.Printf("broker: append failed for type %d: %v", typeID, err)
		metrics.EventsAppended.WithLabelValues(metrics.TypeLabel(typeID), "failure").Inc()
		return
	}
	metrics.EventsAppended.WithLabelValues(metrics.TypeLabel(typeID), "success").Inc()
	c.publisher.Publish(payload, typeID)
}

// run is the connection's I/O loop. It blocks until the socket closes
// or ctx is cancelled, then cleans up registry state.
func (c *connection) run(ctx context.Context) {
	defer c.close()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	go c.writeLoop()
	go c.publishLoop(ctx)

	var tail []byte
	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := append(tail, buf[:n]...)
			var frames [][]byte
			frames, tail = wire.Split(data)
			for _, raw := range frames {
				c.handleFrame(ctx, raw)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *connection) handleFrame(ctx context.Context, raw []byte) {
	f, err := wire.Decode(raw)
	if err != nil {
		// Malformed frames are resynchronized by the splitter before
		// reaching here; a Decode failure at this point means the
		// splitter handed us something inconsistent, which should not
		// happen. Log and drop rather than kill the connection.
		log.Printf("broker: decode error on otherwise-split frame: %v", err)
		return
	}

	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	metrics.FramesReceived.WithLabelValues(frameTypeLabel(f.Type)).Inc()

	switch {
	case st == stateAwaitingRegistration && f.Type == wire.RegisterConsumers:
		c.handleRegister(ctx, f)
	case st == stateActive && f.Type == wire.Publish:
		c.handlePublish(f)
	default:
		// Frame type inappropriate for current state: discard.
	}
}

func (c *connection) handleRegister(ctx context.Context, f wire.Frame) {
	replay := f.Flags.ReplayRequested()

	distinct := make(map[byte]struct{})
	for _, typeID := range f.Payload {
		c.registry.Add(typeID, c)
		distinct[typeID] = struct{}{}
	}

	c.mu.Lock()
	c.state = stateActive
	c.mu.Unlock()

	if replay {
		for typeID := range distinct {
			c.replayType(ctx, typeID)
		}
	}
}

// replayType fetches the stored history for typeID on a worker and
// writes it to this socket, preceding any live fan-out for that type
// that began after registration.
func (c *connection) replayType(ctx context.Context, typeID byte) {
	c.workers.Submit(func() {
		events, err := c.log.ListAscending(ctx, typeID)
		if err != nil {
			log.Printf("broker: replay list failed for type %d: %v", typeID, err)
			return
		}
		for _, ev := range events {
			_, frame := wire.EncodeFrame(wire.Consume, 0, ev.Payload)
			c.Send(frame)
			metrics.ReplayEventsSent.WithLabelValues(metrics.TypeLabel(typeID)).Inc()
		}
	})
}

// handlePublish validates the frame on the I/O goroutine and enqueues
// it for this connection's dedicated publishLoop, which preserves
// arrival order for append+fan-out.
func (c *connection) handlePublish(f wire.Frame) {
	if len(f.Payload) == 0 {
		// Empty payload: legal on the wire, forbidden here.
		return
	}
	c.publishQueue <- f.Payload
}

func (c *connection) close() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	c.state = stateClosed
	c.mu.Unlock()

	c.registry.RemoveAll(c)
	c.conn.Close()

	// handleFrame only ever runs on this same goroutine (run's read
	// loop, which defers close), so it is safe to close these here:
	// nothing can still be sending to them.
	c.closeOnce.Do(func() {
		close(c.publishQueue)
		close(c.outbox)
	})
}

func frameTypeLabel(t wire.Type) string {
	switch t {
	case wire.RegisterConsumers:
		return "register"
	case wire.Publish:
		return "publish"
	case wire.Consume:
		return "consume"
	default:
		return "unknown"
	}
}
