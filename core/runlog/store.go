// Package runlog persists finished charging runs so they can be
// inspected, exported and served by the local API after the fact.
package runlog

import (
	"context"
	"time"

	"github.com/evopti/chargepilot/core/model"
)

// RunRecord is the durable trace of one finished run.
type RunRecord struct {
	ID              string               `json:"id"`
	Mode            string               `json:"mode"`
	Outcome         string               `json:"outcome"`
	StartedAt       time.Time            `json:"started_at"`
	EndedAt         time.Time            `json:"ended_at"`
	Hours           []int                `json:"hours"`
	TotalEnergyKWh  float64              `json:"total_energy_kwh"`
	FinalSoCPercent float64              `json:"final_soc_percent"`
	Samples         []model.EnergySample `json:"samples,omitempty"`
	Error           string               `json:"error,omitempty"`
}

// NewRunRecord merges the plan and the end-of-run result into a record.
func NewRunRecord(p model.Plan, r model.RunResult, samples []model.EnergySample) RunRecord {
	rec := RunRecord{
		ID:              r.RunID,
		Mode:            r.Mode.String(),
		Outcome:         r.Outcome.String(),
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
		Hours:           p.Schedule.Hours(),
		TotalEnergyKWh:  r.Last.TotalEnergyKWh,
		FinalSoCPercent: r.Last.SoCPercent,
		Samples:         samples,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	// Query returns records whose run ended inside [from, to] in append
	// order. A zero time disables that bound; an empty mode matches all
	// modes.
	Query(ctx context.Context, from, to time.Time, mode string) ([]RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error { return nil }
func (NopStore) Query(context.Context, time.Time, time.Time, string) ([]RunRecord, error) {
	return nil, nil
}
func (NopStore) Close() error { return nil }

func matches(rec RunRecord, from, to time.Time, mode string) bool {
	if !from.IsZero() && rec.EndedAt.Before(from) {
		return false
	}
	if !to.IsZero() && rec.EndedAt.After(to) {
		return false
	}
	if mode != "" && rec.Mode != mode {
		return false
	}
	return true
}
