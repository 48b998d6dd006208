package adminapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/primal-host/eventbus/internal/wire"
)

// wsUpgrader allows any origin — the debug stream is an operator
// convenience endpoint, not a protected surface.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleDebugStream upgrades to a websocket and streams one JSON line
// per CONSUME frame forwarded for the requested types, for human
// inspection. GET /debug/stream?types=0,2
func (s *Server) handleDebugStream(c echo.Context) error {
	if s.b == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":   "ServiceUnavailable",
			"message": "broker not attached to this admin server",
		})
	}

	types, err := parseTypes(c.QueryParam("types"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "InvalidRequest",
			"message": err.Error(),
		})
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("adminapi: websocket upgrade error: %v", err)
		return nil
	}
	defer ws.Close()

	sub := &debugSubscriber{frames: make(chan []byte, 64)}
	cleanup := registerForDebug(s.b.Registry(), sub, types)
	defer cleanup()

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	for {
		select {
		case frame, ok := <-sub.frames:
			if !ok {
				return nil
			}
			ev := decodeDebugEvent(frame)
			line, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := ws.WriteMessage(websocket.TextMessage, line); err != nil {
				return nil
			}
		case <-disconnected:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// decodeDebugEvent extracts the type byte and opaque remainder from an
// encoded CONSUME frame for JSON rendering.
func decodeDebugEvent(frame []byte) debugEvent {
	f, err := wire.Decode(frame)
	if err != nil || len(f.Payload) < 1 {
		return debugEvent{}
	}
	return debugEvent{TypeID: f.Payload[0], Payload: f.Payload[1:]}
}

func parseTypes(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("event type %d out of range 0-255", n)
		}
		out = append(out, byte(n))
	}
	return out, nil
}
