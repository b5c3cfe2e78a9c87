package eventbus

import "sync"

// subscriberBuffer is the per-subscriber channel depth. Run events are
// small and frequent during fast simulations, so subscribers get a
// little slack before the bus starts dropping on them.
const subscriberBuffer = 8

// TypedBus fans events of type T out to its subscribers. Delivery is
// best effort: a subscriber that falls behind loses events rather than
// stalling the control loop publishing them.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish sends the event to all subscribers without blocking.
// Publishing on a closed bus is a no-op.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel. On a
// closed bus the returned channel is already closed.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Fan-out
// order is unspecified, so removal swaps with the last entry.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			last := len(b.subs) - 1
			b.subs[i] = b.subs[last]
			b.subs = b.subs[:last]
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
