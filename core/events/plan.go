package events

import "github.com/evopti/chargepilot/core/model"

// PlanEvent is published when a run starts and its schedule has been computed.
type PlanEvent struct {
	Plan model.Plan `json:"plan"`
}
