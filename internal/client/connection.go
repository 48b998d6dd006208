package client

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/primal-host/eventbus/internal/wire"
)

// Receiver is anything a Connection can hand an incoming CONSUME
// payload to: it declares the set of type identifiers it handles and
// knows how to dispatch a matching payload. *CodecRegistry is the
// usual Receiver implementation.
type Receiver interface {
	Types() []byte
	Dispatch(payload []byte)
}

// Connection owns one established TCP socket on the client side. It
// performs the initial registration, serializes and sends PUBLISH
// frames, and dispatches inbound CONSUME payloads to the matching
// receiver.
type Connection struct {
	conn      net.Conn
	receivers []Receiver

	writeMu sync.Mutex
}

// Dial connects to addr and performs the REGISTER_CONSUMERS handshake
// for the union of types across receivers, then starts the receive
// loop on a background goroutine. replayRequested sets the wire
// REPLAY_REQUESTED flag on the registration frame.
func Dial(addr string, replayRequested bool, receivers ...Receiver) (*Connection, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	c := &Connection{conn: conn, receivers: receivers}
	if err := c.register(replayRequested); err != nil {
		conn.Close()
		return nil, err
	}

	go c.receiveLoop()
	return c, nil
}

func (c *Connection) register(replayRequested bool) error {
	var types []byte
	for _, r := range c.receivers {
		types = append(types, r.Types()...)
	}

	var flags wire.Flags
	if replayRequested {
		flags = wire.ReplayRequested
	}

	_, frame := wire.EncodeFrame(wire.RegisterConsumers, flags, types)
	return c.writeFrame(frame)
}

// Publish serializes event and sends it as a PUBLISH frame: payload is
// the event's type byte followed by its marshaled body.
func (c *Connection) Publish(event Event) error {
	body, err := event.MarshalBinary()
	if err != nil {
		return fmt.Errorf("client: marshal event: %w", err)
	}
	payload := append([]byte{event.TypeID()}, body...)
	_, frame := wire.EncodeFrame(wire.Publish, 0, payload)
	return c.writeFrame(frame)
}

func (c *Connection) writeFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}

// Close closes the underlying socket, terminating the receive loop.
func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) receiveLoop() {
	var tail []byte
	buf := make([]byte, 64*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := append(tail, buf[:n]...)
			var frames [][]byte
			frames, tail = wire.Split(data)
			for _, raw := range frames {
				c.handleFrame(raw)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Connection) handleFrame(raw []byte) {
	f, err := wire.Decode(raw)
	if err != nil {
		log.Printf("client: decode error: %v", err)
		return
	}
	if f.Type != wire.Consume {
		return
	}
	if len(f.Payload) < 2 {
		// Empty or type-byte-only payload: nothing to dispatch.
		log.Printf("client: discarding undersized CONSUME payload")
		return
	}

	typeID := f.Payload[0]
	for _, r := range c.receivers {
		for _, t := range r.Types() {
			if t == typeID {
				go r.Dispatch(f.Payload)
				return
			}
		}
	}
}
