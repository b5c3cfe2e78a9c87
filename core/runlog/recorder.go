package runlog

import (
	"context"
	"sync"

	"github.com/evopti/chargepilot/core/logger"
	"github.com/evopti/chargepilot/core/model"
)

// Recorder buffers the presentation stream of the active run and
// appends one RunRecord to the store when the run ends. It satisfies
// the control loop's sink interface.
type Recorder struct {
	store Store
	log   logger.Logger

	mu      sync.Mutex
	plan    model.Plan
	samples []model.EnergySample
}

// NewRecorder wraps the store in a presentation sink.
func NewRecorder(store Store, log logger.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// OnPlan resets the buffer for a new run.
func (r *Recorder) OnPlan(p model.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plan = p
	r.samples = r.samples[:0]
}

// OnSample buffers one sample.
func (r *Recorder) OnSample(s model.EnergySample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// OnRunEnded persists the finished run.
func (r *Recorder) OnRunEnded(res model.RunResult) {
	r.mu.Lock()
	samples := make([]model.EnergySample, len(r.samples))
	copy(samples, r.samples)
	plan := r.plan
	r.mu.Unlock()

	rec := NewRunRecord(plan, res, samples)
	if err := r.store.Append(context.Background(), rec); err != nil {
		if r.log != nil {
			r.log.Errorf("run log append failed for %s: %v", rec.ID, err)
		}
	}
}
