// Package eventbus is the in-process publish/subscribe fabric between
// the control loop and the presentation layers. The controller side
// publishes plan, sample and run-ended events; the API and WebSocket
// layers subscribe without ever importing the controller.
package eventbus

// Event is any value published on the bus. Subscribers filter by
// concrete type, usually through Subscribe.
type Event interface{}

// Bus carries untyped events.
type Bus struct {
	TypedBus[Event]
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }
