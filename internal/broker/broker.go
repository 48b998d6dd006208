// Package broker implements the event bus's TCP-facing half: the
// accept loop, the per-connection state machine, the consumer
// registry wiring, and the fan-out publisher.
package broker

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/primal-host/eventbus/internal/eventlog"
	"github.com/primal-host/eventbus/internal/metrics"
	"github.com/primal-host/eventbus/internal/registry"
)

// Broker owns the TCP listener and the shared dependencies every
// accepted connection is wired to: the event log, the consumer
// registry, the publisher, and the worker pool.
type Broker struct {
	addr     string
	log      eventlog.Log
	registry *registry.Registry
	pub      *Publisher
	workers  *WorkerPool

	mu       sync.Mutex
	listener net.Listener
}

// New constructs a Broker around the given event log. workerCount
// sizes the shared worker pool used for append/replay dispatch.
func New(addr string, log eventlog.Log, workerCount int) *Broker {
	reg := registry.New()
	return &Broker{
		addr:     addr,
		log:      log,
		registry: reg,
		pub:      NewPublisher(reg),
		workers:  NewWorkerPool(workerCount),
	}
}

// Start binds the listen address and begins accepting connections. It
// blocks until ctx is cancelled or the listener fails, then closes the
// listener and the worker pool. A bind failure is returned immediately
// and is fatal to the caller, per the broker's startup policy.
func (b *Broker) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("broker: listen on %s: %w", b.addr, err)
	}

	b.mu.Lock()
	b.listener = ln
	b.mu.Unlock()

	log.Printf("broker: listening on %s", b.addr)

	go func() {
		<-ctx.Done()
		log.Println("broker: shutting down listener...")
		ln.Close()
	}()

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		b.workers.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("broker: accept: %w", err)
			}
		}

		metrics.ConnectionsAccepted.Inc()
		metrics.ActiveConnections.Inc()

		c := newConnection(conn, b.log, b.registry, b.pub, b.workers)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer metrics.ActiveConnections.Dec()
			c.run(ctx)
		}()
	}
}

// Registry exposes the broker's consumer registry, primarily so the
// admin HTTP surface's debug stream can piggyback a subscriber onto
// the same fan-out path as wire connections.
func (b *Broker) Registry() *registry.Registry {
	return b.registry
}

// Log exposes the broker's event log. The admin debug stream does not
// use it: debug subscribers get live fan-out only, with no replay.
func (b *Broker) Log() eventlog.Log {
	return b.log
}
