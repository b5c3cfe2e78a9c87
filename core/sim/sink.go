package sim

import "github.com/evopti/chargepilot/core/model"

// Sink receives the presentation stream of a charging run. Callbacks
// run on the control-loop goroutine and must not block; anything slow
// belongs behind a queue or the event bus.
type Sink interface {
	// OnPlan is emitted once per run, after the schedule is computed
	// and before the first sample.
	OnPlan(p model.Plan)
	// OnSample is emitted once per tick, including the seed sample at
	// start and the terminal sample at hour 24.
	OnSample(s model.EnergySample)
	// OnRunEnded is emitted exactly once per run, after the final
	// charger-off safety command.
	OnRunEnded(r model.RunResult)
}

// NopSink discards the stream.
type NopSink struct{}

func (NopSink) OnPlan(model.Plan)           {}
func (NopSink) OnSample(model.EnergySample) {}
func (NopSink) OnRunEnded(model.RunResult)  {}

// MultiSink fans the stream out to several sinks in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a fan-out sink. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) OnPlan(p model.Plan) {
	for _, s := range m.sinks {
		s.OnPlan(p)
	}
}

func (m *MultiSink) OnSample(sample model.EnergySample) {
	for _, s := range m.sinks {
		s.OnSample(sample)
	}
}

func (m *MultiSink) OnRunEnded(r model.RunResult) {
	for _, s := range m.sinks {
		s.OnRunEnded(r)
	}
}
