package events

import "github.com/evopti/chargepilot/core/model"

// SampleEvent is published on every control loop tick.
type SampleEvent struct {
	Sample model.EnergySample `json:"sample"`
}
