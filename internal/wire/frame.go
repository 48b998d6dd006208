// Package wire implements the event bus's on-wire frame format: an
// 8-byte big-endian header, an opaque payload, and a trailing 0xFF end
// marker. See HeaderSize and Encode for the exact byte offsets.
package wire

import (
	"encoding/binary"
	"fmt"
)

// Type identifies a frame's purpose.
type Type byte

const (
	RegisterConsumers Type = 1
	Publish           Type = 2
	Consume           Type = 3
)

// Flags is an opaque per-frame flag byte. Only ReplayRequested is
// currently defined, and only on RegisterConsumers frames.
type Flags byte

const ReplayRequested Flags = 1 << 0

func (f Flags) ReplayRequested() bool {
	return f&ReplayRequested != 0
}

const (
	// HeaderSize is the fixed 8-byte header: type(1) + flags(1) + reserved(4) + size(2).
	HeaderSize = 8
	// EndMarker terminates every frame.
	EndMarker = 0xFF
)

// IsValidType reports whether t is one of the three defined frame types.
func IsValidType(t Type) bool {
	switch t {
	case RegisterConsumers, Publish, Consume:
		return true
	default:
		return false
	}
}

// Frame is a decoded, immutable on-wire record.
type Frame struct {
	Type    Type
	Flags   Flags
	Payload []byte
}

// Encode lays out an all-zero header, sets type and flags, appends
// payload and the end marker, then writes the total length into the
// size field. Panics if the resulting frame would overflow the 16-bit
// size field — a fatal programmer error per the framing contract.
func Encode(t Type, flags Flags, payload []byte) []byte {
	total := HeaderSize + len(payload) + 1
	if total > 0xFFFF {
		panic(fmt.Sprintf("wire: frame size %d overflows 16-bit size field", total))
	}

	buf := make([]byte, total)
	buf[0] = byte(t)
	buf[1] = byte(flags)
	// buf[2:6] reserved, left zero.
	binary.BigEndian.PutUint16(buf[6:8], uint16(total))
	copy(buf[HeaderSize:], payload)
	buf[total-1] = EndMarker
	return buf
}

// EncodeFrame is a convenience wrapper for building a Frame and its
// encoded bytes together.
func EncodeFrame(t Type, flags Flags, payload []byte) (Frame, []byte) {
	enc := Encode(t, flags, payload)
	return Frame{Type: t, Flags: flags, Payload: payload}, enc
}

// Decode parses a single complete frame buffer (exactly as produced by
// Encode, or as extracted by Split) into its logical fields.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize+1 {
		return Frame{}, fmt.Errorf("wire: frame too short: %d bytes", len(buf))
	}
	t := Type(buf[0])
	if !IsValidType(t) {
		return Frame{}, fmt.Errorf("wire: unknown frame type %d", buf[0])
	}
	size := binary.BigEndian.Uint16(buf[6:8])
	if int(size) != len(buf) {
		return Frame{}, fmt.Errorf("wire: size field %d does not match buffer length %d", size, len(buf))
	}
	if buf[len(buf)-1] != EndMarker {
		return Frame{}, fmt.Errorf("wire: missing end marker")
	}

	var payload []byte
	if size > HeaderSize+1 {
		payload = buf[HeaderSize : len(buf)-1]
	}
	return Frame{Type: t, Flags: Flags(buf[1]), Payload: payload}, nil
}

// Split repeatedly extracts complete frames from buf, tolerating
// garbage and partial frames by byte-advance resynchronization. It
// returns the extracted frames (each a standalone copy of its bytes)
// and the unconsumed tail of buf, which the caller should prepend to
// the next read.
func Split(buf []byte) (frames [][]byte, tail []byte) {
	pos := 0
	for {
		remaining := len(buf) - pos
		if remaining < HeaderSize {
			break
		}

		size := int(binary.BigEndian.Uint16(buf[pos+6 : pos+8]))
		if size < HeaderSize+1 {
			pos++
			continue
		}
		if remaining < size {
			// Incomplete frame. If a complete frame starts later in buf,
			// the bytes at pos were garbage: resync onto it. Otherwise keep
			// everything from pos as the tail for the next read.
			next := pos + 1
			for ; next+HeaderSize <= len(buf); next++ {
				n := int(binary.BigEndian.Uint16(buf[next+6 : next+8]))
				if IsValidType(Type(buf[next])) && n > HeaderSize && next+n <= len(buf) && buf[next+n-1] == EndMarker {
					break
				}
			}
			if next+HeaderSize > len(buf) {
				break
			}
			pos = next
			continue
		}
		if buf[pos+size-1] != EndMarker || !IsValidType(Type(buf[pos])) {
			pos++
			continue
		}

		frame := make([]byte, size)
		copy(frame, buf[pos:pos+size])
		frames = append(frames, frame)
		pos += size
	}

	if pos < len(buf) {
		tail = append([]byte(nil), buf[pos:]...)
	}
	return frames, tail
}
