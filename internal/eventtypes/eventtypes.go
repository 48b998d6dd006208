// Package eventtypes provides the concrete event bodies published and
// consumed over the event bus: one struct per entry in the event type
// identifier enumeration, each serialized with the length-prefixed
// binary scheme every producer and consumer must agree on byte-for-
// byte. The bus core never imports this package — it treats all
// payloads as opaque bytes behind a single leading type byte.
package eventtypes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Type identifiers, stable ordinals per the event identifier
// enumeration. New types must be appended, never inserted, to
// preserve wire compatibility.
const (
	RoomBooked       byte = 0
	BookingCancelled byte = 1
	CustomerCreated  byte = 2
	CustomerUpdated  byte = 3
	BookingPaid      byte = 4
	RoomCreated      byte = 5
	RoomUpdated      byte = 6
)

// RoomBookedEvent is emitted when a room reservation is made.
type RoomBookedEvent struct {
	BookingID  uuid.UUID
	RoomID     uuid.UUID
	CustomerID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
}

func (e RoomBookedEvent) TypeID() byte { return RoomBooked }

func (e RoomBookedEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.BookingID)
	writeUUID(&buf, e.RoomID)
	writeUUID(&buf, e.CustomerID)
	writeTime(&buf, e.CheckIn)
	writeTime(&buf, e.CheckOut)
	return buf.Bytes(), nil
}

func (e *RoomBookedEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.BookingID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: RoomBookedEvent: %w", err)
	}
	if e.RoomID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: RoomBookedEvent: %w", err)
	}
	if e.CustomerID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: RoomBookedEvent: %w", err)
	}
	if e.CheckIn, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: RoomBookedEvent: %w", err)
	}
	if e.CheckOut, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: RoomBookedEvent: %w", err)
	}
	return nil
}

// BookingCancelledEvent is emitted when a reservation is cancelled.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID
	Reason      string
	CancelledAt time.Time
}

func (e BookingCancelledEvent) TypeID() byte { return BookingCancelled }

func (e BookingCancelledEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.BookingID)
	writeString(&buf, e.Reason)
	writeTime(&buf, e.CancelledAt)
	return buf.Bytes(), nil
}

func (e *BookingCancelledEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.BookingID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: BookingCancelledEvent: %w", err)
	}
	if e.Reason, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: BookingCancelledEvent: %w", err)
	}
	if e.CancelledAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: BookingCancelledEvent: %w", err)
	}
	return nil
}

// CustomerCreatedEvent is emitted when a new customer record is created.
type CustomerCreatedEvent struct {
	CustomerID uuid.UUID
	Name       string
	Email      string
	CreatedAt  time.Time
}

func (e CustomerCreatedEvent) TypeID() byte { return CustomerCreated }

func (e CustomerCreatedEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.CustomerID)
	writeString(&buf, e.Name)
	writeString(&buf, e.Email)
	writeTime(&buf, e.CreatedAt)
	return buf.Bytes(), nil
}

func (e *CustomerCreatedEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.CustomerID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerCreatedEvent: %w", err)
	}
	if e.Name, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerCreatedEvent: %w", err)
	}
	if e.Email, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerCreatedEvent: %w", err)
	}
	if e.CreatedAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerCreatedEvent: %w", err)
	}
	return nil
}

// CustomerUpdatedEvent is emitted when a customer record is edited.
type CustomerUpdatedEvent struct {
	CustomerID uuid.UUID
	Name       string
	Email      string
	UpdatedAt  time.Time
}

func (e CustomerUpdatedEvent) TypeID() byte { return CustomerUpdated }

func (e CustomerUpdatedEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.CustomerID)
	writeString(&buf, e.Name)
	writeString(&buf, e.Email)
	writeTime(&buf, e.UpdatedAt)
	return buf.Bytes(), nil
}

func (e *CustomerUpdatedEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.CustomerID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerUpdatedEvent: %w", err)
	}
	if e.Name, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerUpdatedEvent: %w", err)
	}
	if e.Email, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerUpdatedEvent: %w", err)
	}
	if e.UpdatedAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: CustomerUpdatedEvent: %w", err)
	}
	return nil
}

// BookingPaidEvent is emitted when a reservation's balance is settled.
type BookingPaidEvent struct {
	BookingID   uuid.UUID
	AmountCents int64
	PaidAt      time.Time
}

func (e BookingPaidEvent) TypeID() byte { return BookingPaid }

func (e BookingPaidEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.BookingID)
	binary.Write(&buf, binary.BigEndian, e.AmountCents)
	writeTime(&buf, e.PaidAt)
	return buf.Bytes(), nil
}

func (e *BookingPaidEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.BookingID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: BookingPaidEvent: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &e.AmountCents); err != nil {
		return fmt.Errorf("eventtypes: BookingPaidEvent: amount: %w", err)
	}
	if e.PaidAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: BookingPaidEvent: %w", err)
	}
	return nil
}

// RoomCreatedEvent is emitted when a room is added to inventory.
type RoomCreatedEvent struct {
	RoomID    uuid.UUID
	Number    string
	RateCents int64
	CreatedAt time.Time
}

func (e RoomCreatedEvent) TypeID() byte { return RoomCreated }

func (e RoomCreatedEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.RoomID)
	writeString(&buf, e.Number)
	binary.Write(&buf, binary.BigEndian, e.RateCents)
	writeTime(&buf, e.CreatedAt)
	return buf.Bytes(), nil
}

func (e *RoomCreatedEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.RoomID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: RoomCreatedEvent: %w", err)
	}
	if e.Number, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: RoomCreatedEvent: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &e.RateCents); err != nil {
		return fmt.Errorf("eventtypes: RoomCreatedEvent: rate: %w", err)
	}
	if e.CreatedAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: RoomCreatedEvent: %w", err)
	}
	return nil
}

// RoomUpdatedEvent is emitted when a room's details change.
type RoomUpdatedEvent struct {
	RoomID    uuid.UUID
	Number    string
	RateCents int64
	UpdatedAt time.Time
}

func (e RoomUpdatedEvent) TypeID() byte { return RoomUpdated }

func (e RoomUpdatedEvent) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	writeUUID(&buf, e.RoomID)
	writeString(&buf, e.Number)
	binary.Write(&buf, binary.BigEndian, e.RateCents)
	writeTime(&buf, e.UpdatedAt)
	return buf.Bytes(), nil
}

func (e *RoomUpdatedEvent) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	var err error
	if e.RoomID, err = readUUID(r); err != nil {
		return fmt.Errorf("eventtypes: RoomUpdatedEvent: %w", err)
	}
	if e.Number, err = readString(r); err != nil {
		return fmt.Errorf("eventtypes: RoomUpdatedEvent: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &e.RateCents); err != nil {
		return fmt.Errorf("eventtypes: RoomUpdatedEvent: rate: %w", err)
	}
	if e.UpdatedAt, err = readTime(r); err != nil {
		return fmt.Errorf("eventtypes: RoomUpdatedEvent: %w", err)
	}
	return nil
}

// writeUUID serializes a 128-bit UUID as two 64-bit big-endian
// integers, most-significant half first, per the event body
// serialization contract.
func writeUUID(buf *bytes.Buffer, id uuid.UUID) {
	binary.Write(buf, binary.BigEndian, binary.BigEndian.Uint64(id[0:8]))
	binary.Write(buf, binary.BigEndian, binary.BigEndian.Uint64(id[8:16]))
}

func readUUID(r *bytes.Reader) (uuid.UUID, error) {
	var hi, lo uint64
	if err := binary.Read(r, binary.BigEndian, &hi); err != nil {
		return uuid.UUID{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &lo); err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[0:8], hi)
	binary.BigEndian.PutUint64(id[8:16], lo)
	return id, nil
}

// writeString serializes s as a uint16 length prefix followed by its
// UTF-8 bytes.
func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// writeTime serializes t as int64 Unix nanoseconds.
func writeTime(buf *bytes.Buffer, t time.Time) {
	binary.Write(buf, binary.BigEndian, t.UnixNano())
}

func readTime(r *bytes.Reader) (time.Time, error) {
	var ns int64
	if err := binary.Read(r, binary.BigEndian, &ns); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, ns).UTC(), nil
}
