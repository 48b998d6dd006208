package eventtypes

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRoomBookedRoundTrip(t *testing.T) {
	want := RoomBookedEvent{
		BookingID:  uuid.New(),
		RoomID:     uuid.New(),
		CustomerID: uuid.New(),
		CheckIn:    time.Now().UTC().Truncate(time.Nanosecond),
		CheckOut:   time.Now().Add(48 * time.Hour).UTC().Truncate(time.Nanosecond),
	}

	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got RoomBookedEvent
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.BookingID != want.BookingID || got.RoomID != want.RoomID || got.CustomerID != want.CustomerID {
		t.Fatalf("uuid mismatch: got %+v want %+v", got, want)
	}
	if !got.CheckIn.Equal(want.CheckIn) || !got.CheckOut.Equal(want.CheckOut) {
		t.Fatalf("time mismatch: got %+v want %+v", got, want)
	}
	if want.TypeID() != RoomBooked {
		t.Fatalf("unexpected type id: %d", want.TypeID())
	}
}

func TestBookingCancelledRoundTrip(t *testing.T) {
	want := BookingCancelledEvent{
		BookingID:   uuid.New(),
		Reason:      "guest requested refund",
		CancelledAt: time.Now().UTC(),
	}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got BookingCancelledEvent
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.BookingID != want.BookingID || got.Reason != want.Reason {
		t.Fatalf("mismatch: got %+v want %+v", got, want)
	}
}

func TestCustomerCreatedRoundTripWithEmptyStrings(t *testing.T) {
	want := CustomerCreatedEvent{
		CustomerID: uuid.New(),
		Name:       "",
		Email:      "a@example.com",
		CreatedAt:  time.Now().UTC(),
	}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got CustomerCreatedEvent
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "" || got.Email != want.Email {
		t.Fatalf("mismatch: got %+v want %+v", got, want)
	}
}

func TestBookingPaidRoundTrip(t *testing.T) {
	want := BookingPaidEvent{
		BookingID:   uuid.New(),
		AmountCents: 12345,
		PaidAt:      time.Now().UTC(),
	}
	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got BookingPaidEvent
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.AmountCents != want.AmountCents {
		t.Fatalf("amount mismatch: got %d want %d", got.AmountCents, want.AmountCents)
	}
}

func TestRoomCreatedAndUpdatedTypeIDs(t *testing.T) {
	if (RoomCreatedEvent{}).TypeID() != RoomCreated {
		t.Fatalf("unexpected RoomCreated type id")
	}
	if (RoomUpdatedEvent{}).TypeID() != RoomUpdated {
		t.Fatalf("unexpected RoomUpdated type id")
	}
}
