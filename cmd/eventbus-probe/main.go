// eventbus-probe is a manual smoke-testing tool for exercising the
// client library end to end against a running broker. It registers a
// handler for ROOM_BOOKED events, optionally requests replay, and
// publishes one RoomBookedEvent before exiting.
//
// Usage:
//
//	./eventbus-probe -addr localhost:5672 -replay
package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/primal-host/eventbus/internal/client"
	"github.com/primal-host/eventbus/internal/eventtypes"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	addr := flag.String("addr", "localhost:5672", "broker address")
	replay := flag.Bool("replay", false, "request replay of ROOM_BOOKED history on connect")
	flag.Parse()

	reg := client.NewCodecRegistry()
	reg.Register(eventtypes.RoomBooked, func(body []byte) (any, error) {
		var e eventtypes.RoomBookedEvent
		if err := e.UnmarshalBinary(body); err != nil {
			return nil, err
		}
		return e, nil
	}, func(event any) {
		log.Printf("received ROOM_BOOKED: %+v", event)
	})

	ep := client.Start(*addr, *replay, reg)
	defer ep.Close()

	booked := eventtypes.RoomBookedEvent{
		BookingID:  uuid.New(),
		RoomID:     uuid.New(),
		CustomerID: uuid.New(),
		CheckIn:    time.Now().UTC(),
		CheckOut:   time.Now().Add(24 * time.Hour).UTC(),
	}
	if err := ep.Publish(booked); err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published ROOM_BOOKED %s", booked.BookingID)

	time.Sleep(2 * time.Second)
}
