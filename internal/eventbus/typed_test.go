package eventbus

import "testing"

func TestTypedBusFanOut(t *testing.T) {
	bus := NewTyped[int]()
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(42)
	if v := <-a; v != 42 {
		t.Fatalf("subscriber a got %d", v)
	}
	if v := <-b; v != 42 {
		t.Fatalf("subscriber b got %d", v)
	}
}

func TestTypedBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(i)
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered events = %d, want %d", got, subscriberBuffer)
	}
	if v := <-ch; v != 0 {
		t.Fatalf("oldest event = %d, want 0", v)
	}
}

func TestTypedBusUnsubscribeKeepsOthers(t *testing.T) {
	bus := NewTyped[string]()
	a := bus.Subscribe()
	b := bus.Subscribe()
	c := bus.Subscribe()
	bus.Unsubscribe(b)
	if _, ok := <-b; ok {
		t.Fatalf("unsubscribed channel still open")
	}
	bus.Publish("x")
	if v := <-a; v != "x" {
		t.Fatalf("subscriber a got %q", v)
	}
	if v := <-c; v != "x" {
		t.Fatalf("subscriber c got %q", v)
	}
}

func TestTypedBusSubscribeAfterClose(t *testing.T) {
	bus := NewTyped[int]()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel from closed bus")
	}
}
