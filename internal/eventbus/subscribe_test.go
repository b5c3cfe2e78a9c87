package eventbus

import (
	"testing"
	"time"
)

type intEvent struct{ n int }
type strEvent struct{ s string }

func TestSubscribe_FiltersByType(t *testing.T) {
	bus := New()
	defer bus.Close()

	ints, stop := Subscribe[intEvent](bus)
	defer stop()

	bus.Publish(strEvent{s: "ignored"})
	bus.Publish(intEvent{n: 7})

	select {
	case ev := <-ints:
		if ev.n != 7 {
			t.Fatalf("expected 7, got %d", ev.n)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for typed event")
	}

	select {
	case ev, ok := <-ints:
		if ok {
			t.Fatalf("unexpected extra event %v", ev)
		}
	default:
	}
}

func TestSubscribe_StopClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()

	ints, stop := Subscribe[intEvent](bus)
	stop()

	select {
	case _, ok := <-ints:
		if ok {
			t.Fatal("expected closed channel after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after stop")
	}
}

func TestSubscribe_BusCloseClosesChannel(t *testing.T) {
	bus := New()
	ints, stop := Subscribe[intEvent](bus)
	defer stop()

	bus.Close()

	select {
	case _, ok := <-ints:
		if ok {
			t.Fatal("expected closed channel after bus close")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after bus close")
	}
}
