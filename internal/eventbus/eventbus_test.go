package eventbus

import "testing"

type ping struct{ n int }

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(ping{n: 7})

	got, ok := (<-ch).(ping)
	if !ok || got.n != 7 {
		t.Fatalf("got %v", got)
	}
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	// Overflow the subscriber buffer; Publish must not stall.
	for i := 0; i < 100; i++ {
		bus.Publish(ping{n: i})
	}
	if v := (<-ch).(ping); v.n != 0 {
		t.Fatalf("expected first event, got %v", v)
	}
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	bus := New()
	a, b := bus.Subscribe(), bus.Subscribe()

	bus.Close()

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		if _, ok := <-ch; ok {
			t.Fatalf("subscriber %s still open after Close", name)
		}
	}
}

func TestBusUnsubscribeAfterCloseIsSafe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	bus.Unsubscribe(ch)
}
