package stream

import (
	"encoding/json"
	"time"

	"github.com/evopti/chargepilot/core/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants.
const (
	TypeStatus = "status" // sent to a client right after it connects
	TypePlan   = "plan"
	TypeSample = "sample"
	TypeResult = "result"
)

// PlanPayload is the plan message. Plan serializes its Mode as an
// explicit string field.
type PlanPayload struct {
	model.Plan
	Mode string `json:"mode"`
}

// ResultPayload is the end-of-run message. Sample messages carry a
// model.EnergySample unchanged.
type ResultPayload struct {
	RunID     string             `json:"run_id"`
	Mode      string             `json:"mode"`
	Outcome   string             `json:"outcome"`
	StartedAt string             `json:"started_at"`
	EndedAt   string             `json:"ended_at"`
	Samples   int                `json:"samples"`
	Last      model.EnergySample `json:"last_sample"`
	Error     string             `json:"error,omitempty"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func PlanPayloadFrom(p model.Plan) PlanPayload {
	return PlanPayload{Plan: p, Mode: p.Mode.String()}
}

func ResultPayloadFrom(r model.RunResult) ResultPayload {
	out := ResultPayload{
		RunID:     r.RunID,
		Mode:      r.Mode.String(),
		Outcome:   r.Outcome.String(),
		StartedAt: r.StartedAt.Format(time.RFC3339),
		EndedAt:   r.EndedAt.Format(time.RFC3339),
		Samples:   r.Samples,
		Last:      r.Last,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}
