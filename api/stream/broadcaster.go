package stream

import (
	"context"

	"github.com/evopti/chargepilot/core/events"
	"github.com/evopti/chargepilot/infra/logger"
	"github.com/evopti/chargepilot/internal/eventbus"
)

// Broadcaster turns bus events into hub envelopes.
type Broadcaster struct {
	hub *Hub
	log logger.Logger
}

func NewBroadcaster(hub *Hub, log logger.Logger) *Broadcaster {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Broadcaster{hub: hub, log: log}
}

// Run forwards events until ctx ends or the bus closes.
func (b *Broadcaster) Run(ctx context.Context, bus *eventbus.Bus) {
	plans, stopPlans := eventbus.Subscribe[events.PlanEvent](bus)
	defer stopPlans()
	samples, stopSamples := eventbus.Subscribe[events.SampleEvent](bus)
	defer stopSamples()
	results, stopResults := eventbus.Subscribe[events.RunEndedEvent](bus)
	defer stopResults()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-plans:
			if !ok {
				return
			}
			b.broadcast(TypePlan, PlanPayloadFrom(ev.Plan))
		case ev, ok := <-samples:
			if !ok {
				return
			}
			b.broadcast(TypeSample, ev.Sample)
		case ev, ok := <-results:
			if !ok {
				return
			}
			b.broadcast(TypeResult, ResultPayloadFrom(ev.Result))
		}
	}
}

func (b *Broadcaster) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		b.log.Errorf("marshal %s envelope: %v", msgType, err)
		return
	}
	b.hub.Broadcast(msg)
}
