// Package metrics defines the observability ports of the charging
// loop. Concrete sinks live under infra/metrics.
package metrics

import "github.com/evopti/chargepilot/core/model"

// Sink records charging samples for observability purposes.
type Sink interface {
	RecordSample(s model.EnergySample) error
}

// PlanRecorder is implemented by sinks interested in the computed plan.
type PlanRecorder interface {
	RecordPlan(p model.Plan) error
}

// RunRecorder is implemented by sinks interested in run outcomes.
type RunRecorder interface {
	RecordRunEnded(r model.RunResult) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSample(model.EnergySample) error { return nil }
func (NopSink) RecordPlan(model.Plan) error           { return nil }
func (NopSink) RecordRunEnded(model.RunResult) error  { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSample forwards the sample to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSample(s model.EnergySample) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordSample(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlan forwards the plan to sinks that support it.
func (m *MultiSink) RecordPlan(p model.Plan) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(PlanRecorder); ok {
			if err := rec.RecordPlan(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRunEnded forwards the outcome to sinks that support it.
func (m *MultiSink) RecordRunEnded(r model.RunResult) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(RunRecorder); ok {
			if err := rec.RecordRunEnded(r); err != nil {
				return err
			}
		}
	}
	return nil
}
