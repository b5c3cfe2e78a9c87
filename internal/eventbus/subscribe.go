package eventbus

// Subscribe returns a channel delivering the bus events whose concrete
// type is T, plus a stop function releasing the subscription. The
// channel is closed when the subscription stops or the bus closes.
func Subscribe[T any](bus *Bus) (<-chan T, func()) {
	src := bus.Subscribe()
	out := make(chan T, subscriberBuffer)
	go func() {
		defer close(out)
		for ev := range src {
			v, ok := ev.(T)
			if !ok {
				continue
			}
			select {
			case out <- v:
			default:
			}
		}
	}()
	return out, func() { bus.Unsubscribe(src) }
}
