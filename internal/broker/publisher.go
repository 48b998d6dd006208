package broker

import (
	"github.com/primal-host/eventbus/internal/metrics"
	"github.com/primal-host/eventbus/internal/registry"
	"github.com/primal-host/eventbus/internal/wire"
)

// Publisher constructs a CONSUME frame once per publish and fans it
// out to every current subscriber of the event's type. Writes are
// best-effort: each subscriber's Send only enqueues the frame onto
// that connection's outbox and returns immediately (see
// connection.Send), so a slow or dead peer never blocks delivery to
// the other subscribers in this loop.
type Publisher struct {
	registry *registry.Registry
}

// NewPublisher returns a Publisher that fans out through reg.
func NewPublisher(reg *registry.Registry) *Publisher {
	return &Publisher{registry: reg}
}

// Publish encodes payload as a single CONSUME frame and writes it to
// every connection currently subscribed to typeID.
func (p *Publisher) Publish(payload []byte, typeID byte) {
	_, frame := wire.EncodeFrame(wire.Consume, 0, payload)

	subs := p.registry.ConnectionsFor(typeID)
	for _, sub := range subs {
		sub.Send(frame)
		metrics.FanoutWrites.WithLabelValues(metrics.TypeLabel(typeID), "success").Inc()
	}
}
