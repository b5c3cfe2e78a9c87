package runlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evopti/chargepilot/core/model"
)

type captureStore struct {
	NopStore
	recs []RunRecord
	err  error
}

func (c *captureStore) Append(_ context.Context, rec RunRecord) error {
	if c.err != nil {
		return c.err
	}
	c.recs = append(c.recs, rec)
	return nil
}

func TestRecorder_AppendsOneRecordPerRun(t *testing.T) {
	store := &captureStore{}
	rec := NewRecorder(store, nil)

	var sched model.Schedule
	sched[5] = true
	rec.OnPlan(model.Plan{RunID: "run-1", Schedule: sched, HoursNeeded: 1})
	rec.OnSample(model.EnergySample{HourDecimal: 0, SoCPercent: 20})
	rec.OnSample(model.EnergySample{HourDecimal: 24, SoCPercent: 80, TotalEnergyKWh: 30})
	rec.OnRunEnded(model.RunResult{
		RunID:     "run-1",
		Outcome:   model.OutcomeCompleted,
		StartedAt: time.Unix(100, 0),
		EndedAt:   time.Unix(200, 0),
		Samples:   2,
		Last:      model.EnergySample{HourDecimal: 24, SoCPercent: 80, TotalEnergyKWh: 30},
	})

	if len(store.recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.recs))
	}
	got := store.recs[0]
	if got.ID != "run-1" || got.Outcome != "completed" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Samples) != 2 || got.Samples[1].HourDecimal != 24 {
		t.Fatalf("unexpected samples: %+v", got.Samples)
	}
	if len(got.Hours) != 1 || got.Hours[0] != 5 {
		t.Fatalf("unexpected hours: %v", got.Hours)
	}
	if got.FinalSoCPercent != 80 || got.TotalEnergyKWh != 30 {
		t.Fatalf("unexpected totals: %+v", got)
	}
}

func TestRecorder_ResetsBufferBetweenRuns(t *testing.T) {
	store := &captureStore{}
	rec := NewRecorder(store, nil)

	rec.OnPlan(model.Plan{RunID: "run-1"})
	rec.OnSample(model.EnergySample{HourDecimal: 0})
	rec.OnRunEnded(model.RunResult{RunID: "run-1", Outcome: model.OutcomeAborted})

	rec.OnPlan(model.Plan{RunID: "run-2"})
	rec.OnSample(model.EnergySample{HourDecimal: 0})
	rec.OnSample(model.EnergySample{HourDecimal: 0.5})
	rec.OnRunEnded(model.RunResult{RunID: "run-2", Outcome: model.OutcomeCompleted})

	if len(store.recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(store.recs))
	}
	if len(store.recs[0].Samples) != 1 {
		t.Fatalf("first run should have 1 sample, got %d", len(store.recs[0].Samples))
	}
	if len(store.recs[1].Samples) != 2 {
		t.Fatalf("second run should have 2 samples, got %d", len(store.recs[1].Samples))
	}
}

func TestRecorder_AppendErrorDoesNotPanic(t *testing.T) {
	store := &captureStore{err: errors.New("disk full")}
	rec := NewRecorder(store, nil)
	rec.OnPlan(model.Plan{RunID: "run-1"})
	rec.OnRunEnded(model.RunResult{RunID: "run-1"})
	if len(store.recs) != 0 {
		t.Fatalf("expected no records on error")
	}
}
