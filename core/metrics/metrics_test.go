package metrics

import (
	"errors"
	"testing"

	"github.com/evopti/chargepilot/core/factory"
	"github.com/evopti/chargepilot/core/model"
)

type captureSink struct {
	samples int
	plans   int
	runs    int
	err     error
}

func (c *captureSink) RecordSample(model.EnergySample) error { c.samples++; return c.err }
func (c *captureSink) RecordPlan(model.Plan) error           { c.plans++; return c.err }
func (c *captureSink) RecordRunEnded(model.RunResult) error  { c.runs++; return c.err }

// sampleOnly implements just the base interface.
type sampleOnly struct{ samples int }

func (s *sampleOnly) RecordSample(model.EnergySample) error { s.samples++; return nil }

func TestMultiSinkForwardsToCapableSinks(t *testing.T) {
	full := &captureSink{}
	base := &sampleOnly{}
	m := NewMultiSink(full, base)

	if err := m.RecordSample(model.EnergySample{}); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if err := m.RecordPlan(model.Plan{}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := m.RecordRunEnded(model.RunResult{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if full.samples != 1 || full.plans != 1 || full.runs != 1 {
		t.Fatalf("full sink: %+v", full)
	}
	if base.samples != 1 {
		t.Fatalf("base sink: %+v", base)
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	bad := &captureSink{err: errors.New("boom")}
	after := &captureSink{}
	m := NewMultiSink(bad, after)
	if err := m.RecordSample(model.EnergySample{}); err == nil {
		t.Fatal("error swallowed")
	}
	if after.samples != 0 {
		t.Fatal("later sink reached despite error")
	}
}

func TestNewSinkEmptyIsNop(t *testing.T) {
	s, err := NewSink(nil)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewSinkUnknownType(t *testing.T) {
	if _, err := NewSink([]factory.ModuleConfig{{Type: "no-such-sink"}}); err == nil {
		t.Fatal("unknown sink type accepted")
	}
}
