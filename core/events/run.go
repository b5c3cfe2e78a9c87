package events

import "github.com/evopti/chargepilot/core/model"

// RunEndedEvent is published once when a run finishes, whatever the outcome.
type RunEndedEvent struct {
	Result model.RunResult `json:"result"`
}
