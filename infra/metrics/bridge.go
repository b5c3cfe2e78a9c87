package metrics

import (
	coremetrics "github.com/evopti/chargepilot/core/metrics"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

// SinkBridge adapts a metrics sink to the control loop's presentation
// stream. Recording failures are logged, never propagated: a broken
// metrics backend must not fail a running charge.
type SinkBridge struct {
	sink coremetrics.Sink
	log  logger.Logger
}

// NewSinkBridge wraps the sink for use as a control loop sink.
func NewSinkBridge(sink coremetrics.Sink, log logger.Logger) *SinkBridge {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SinkBridge{sink: sink, log: log}
}

func (b *SinkBridge) OnPlan(p model.Plan) {
	if rec, ok := b.sink.(coremetrics.PlanRecorder); ok {
		if err := rec.RecordPlan(p); err != nil {
			b.log.Warnf("metrics plan record error: %v", err)
		}
	}
}

func (b *SinkBridge) OnSample(s model.EnergySample) {
	if err := b.sink.RecordSample(s); err != nil {
		b.log.Warnf("metrics sample record error: %v", err)
	}
}

func (b *SinkBridge) OnRunEnded(r model.RunResult) {
	if rec, ok := b.sink.(coremetrics.RunRecorder); ok {
		if err := rec.RecordRunEnded(r); err != nil {
			b.log.Warnf("metrics run record error: %v", err)
		}
	}
}
