package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

// DefaultTopicRoot prefixes run topics when none is configured.
const DefaultTopicRoot = "chargepilot"

// RunPublisher publishes the presentation stream of a run as JSON
// envelopes under {root}/run/{id}/plan, .../sample and .../result.
type RunPublisher struct {
	cli  Client
	root string
	log  logger.Logger

	mu    sync.Mutex
	runID string
}

// NewRunPublisher wraps the MQTT client for use as a control loop sink.
func NewRunPublisher(cli Client, root string, log logger.Logger) *RunPublisher {
	if root == "" {
		root = DefaultTopicRoot
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &RunPublisher{cli: cli, root: root, log: log}
}

type planMessage struct {
	model.Plan
	Mode string `json:"mode"`
}

type resultMessage struct {
	RunID     string             `json:"run_id"`
	Mode      string             `json:"mode"`
	Outcome   string             `json:"outcome"`
	StartedAt string             `json:"started_at"`
	EndedAt   string             `json:"ended_at"`
	Samples   int                `json:"samples"`
	Last      model.EnergySample `json:"last_sample"`
	Error     string             `json:"error,omitempty"`
}

func (p *RunPublisher) OnPlan(plan model.Plan) {
	p.mu.Lock()
	p.runID = plan.RunID
	p.mu.Unlock()
	p.publish(plan.RunID, "plan", planMessage{Plan: plan, Mode: plan.Mode.String()})
}

func (p *RunPublisher) OnSample(s model.EnergySample) {
	p.mu.Lock()
	runID := p.runID
	p.mu.Unlock()
	if runID == "" {
		return
	}
	p.publish(runID, "sample", s)
}

func (p *RunPublisher) OnRunEnded(r model.RunResult) {
	msg := resultMessage{
		RunID:     r.RunID,
		Mode:      r.Mode.String(),
		Outcome:   r.Outcome.String(),
		StartedAt: r.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:   r.EndedAt.UTC().Format(time.RFC3339),
		Samples:   r.Samples,
		Last:      r.Last,
	}
	if r.Err != nil {
		msg.Error = r.Err.Error()
	}
	p.publish(r.RunID, "result", msg)
	p.mu.Lock()
	p.runID = ""
	p.mu.Unlock()
}

func (p *RunPublisher) publish(runID, kind string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Errorf("encode %s message: %v", kind, err)
		return
	}
	topic := fmt.Sprintf("%s/run/%s/%s", p.root, runID, kind)
	if err := p.cli.Publish(topic, payload); err != nil {
		p.log.Warnf("publish %s: %v", topic, err)
	}
}
