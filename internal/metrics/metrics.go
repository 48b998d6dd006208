// Package metrics defines the Prometheus instruments the broker
// exposes on its admin HTTP surface.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventbus",
		Name:      "connections_accepted_total",
		Help:      "Total TCP connections accepted by the broker listener.",
	})

	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventbus",
		Name:      "active_connections",
		Help:      "Number of currently open broker connections.",
	})

	FramesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbus",
		Name:      "frames_received_total",
		Help:      "Frames received by the broker, by frame type.",
	}, []string{"frame_type"})

	EventsAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbus",
		Name:      "events_appended_total",
		Help:      "Events appended to the event log, by event type and outcome.",
	}, []string{"event_type", "outcome"})

	FanoutWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbus",
		Name:      "fanout_writes_total",
		Help:      "Per-subscriber CONSUME writes performed by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})

	ReplayEventsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventbus",
		Name:      "replay_events_sent_total",
		Help:      "Historical events sent during subscriber replay, by event type.",
	}, []string{"event_type"})
)

// Registry is the Prometheus registry the admin HTTP surface serves.
// A dedicated registry (rather than the global default) keeps the
// broker's metrics from colliding with anything else linked into the
// process.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		ConnectionsAccepted,
		ActiveConnections,
		FramesReceived,
		EventsAppended,
		FanoutWrites,
		ReplayEventsSent,
	)
}

// typeLabel renders an event type identifier byte as a metric label
// value. Kept numeric rather than symbolic so the metrics package has
// no dependency on the application-level event type enumeration.
func typeLabel(typeID byte) string {
	return strconv.Itoa(int(typeID))
}

// TypeLabel exposes typeLabel to other packages in this module.
func TypeLabel(typeID byte) string {
	return typeLabel(typeID)
}
