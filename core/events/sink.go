package events

import (
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/internal/eventbus"
)

// BusSink forwards control loop callbacks to an event bus so that the API
// and stream layers can observe a run without touching the loop itself.
type BusSink struct {
	bus *eventbus.Bus
}

func NewBusSink(bus *eventbus.Bus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) OnPlan(p model.Plan) {
	s.bus.Publish(PlanEvent{Plan: p})
}

func (s *BusSink) OnSample(sample model.EnergySample) {
	s.bus.Publish(SampleEvent{Sample: sample})
}

func (s *BusSink) OnRunEnded(r model.RunResult) {
	s.bus.Publish(RunEndedEvent{Result: r})
}
