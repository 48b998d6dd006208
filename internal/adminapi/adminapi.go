// Package adminapi hosts the event bus's own operational HTTP surface:
// a liveness check, Prometheus metrics, and an optional websocket
// stream for operators to tail live traffic. It is independent of the
// wire protocol in internal/wire and independent of the two CQRS
// applications' own HTTP surfaces, which this codebase does not
// implement.
package adminapi

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/primal-host/eventbus/internal/broker"
	"github.com/primal-host/eventbus/internal/metrics"
	"github.com/primal-host/eventbus/internal/registry"
)

// Server wraps the Echo instance exposing the admin surface.
type Server struct {
	echo *echo.Echo
	addr string
	b    *broker.Broker
}

// New creates a configured Echo server. b may be nil in tests that
// only need /health.
func New(addr string, b *broker.Broker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{echo: e, addr: addr, b: b}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	s.echo.GET("/debug/stream", s.handleDebugStream)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("adminapi: listening on %s", s.addr)
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("adminapi: shutting down...")
		return s.echo.Shutdown(context.Background())
	}
}

// debugSubscriber adapts a websocket connection to registry.Subscriber
// so the debug stream can piggyback on the same fan-out path wire
// subscribers use, without the broker's registry needing to know
// anything about HTTP.
type debugSubscriber struct {
	frames chan []byte
}

func (d *debugSubscriber) Send(frame []byte) {
	select {
	case d.frames <- frame:
	default:
		// Slow operator console: drop rather than block fan-out to
		// real subscribers.
	}
}

// debugEvent is the JSON shape streamed to /debug/stream clients — one
// line per forwarded CONSUME frame, for human inspection only. This is
// not part of the wire protocol.
type debugEvent struct {
	TypeID  byte   `json:"typeId"`
	Payload []byte `json:"payload"`
}

// registerForDebug mirrors the registration a wire client would
// perform: it records the subscriber in the broker's registry for
// every requested type, and returns a cleanup func that deregisters
// it. Unlike a wire connection this never changes any connection
// state machine; it's a registry-only hook.
func registerForDebug(reg *registry.Registry, sub registry.Subscriber, types []byte) func() {
	for _, t := range types {
		reg.Add(t, sub)
	}
	return func() { reg.RemoveAll(sub) }
}
