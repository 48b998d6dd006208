package client

import (
	"errors"
	"testing"
)

func TestCodecRegistryDispatchInvokesAllHandlers(t *testing.T) {
	r := NewCodecRegistry()
	var calls []string

	r.Register(0x00, func(body []byte) (any, error) {
		return string(body), nil
	}, func(e any) {
		calls = append(calls, "first:"+e.(string))
	})
	r.Register(0x00, func(body []byte) (any, error) {
		return string(body), nil
	}, func(e any) {
		calls = append(calls, "second:"+e.(string))
	})

	r.Dispatch(append([]byte{0x00}, []byte("room")...))

	if len(calls) != 2 {
		t.Fatalf("expected both handlers invoked, got %v", calls)
	}
}

func TestCodecRegistryUnknownTypeDiscarded(t *testing.T) {
	r := NewCodecRegistry()
	called := false
	r.Register(0x00, func(body []byte) (any, error) { return body, nil }, func(any) { called = true })

	r.Dispatch([]byte{0x05, 'x'})
	if called {
		t.Fatalf("handler should not run for an unregistered type")
	}
}

func TestCodecRegistryDeserializeErrorDiscarded(t *testing.T) {
	r := NewCodecRegistry()
	called := false
	r.Register(0x00, func([]byte) (any, error) {
		return nil, errors.New("boom")
	}, func(any) { called = true })

	r.Dispatch([]byte{0x00, 'x'})
	if called {
		t.Fatalf("handler should not run when deserialize fails")
	}
}

func TestCodecRegistryHandlerPanicDoesNotBlockOthers(t *testing.T) {
	r := NewCodecRegistry()
	secondRan := false

	r.Register(0x00, func(b []byte) (any, error) { return b, nil }, func(any) {
		panic("boom")
	})
	r.Register(0x00, func(b []byte) (any, error) { return b, nil }, func(any) {
		secondRan = true
	})

	r.Dispatch([]byte{0x00, 'x'})
	if !secondRan {
		t.Fatalf("second handler should still run after first panics")
	}
}

func TestCodecRegistryTypes(t *testing.T) {
	r := NewCodecRegistry()
	r.Register(0x00, nil, nil)
	r.Register(0x02, nil, nil)
	r.Register(0x02, nil, nil) // second handler for same type, not a new entry

	types := r.Types()
	if len(types) != 2 {
		t.Fatalf("expected 2 distinct types, got %d: %v", len(types), types)
	}
}
