// Package charger defines the client port to the home-energy simulator
// and the error classes its callers dispatch on.
package charger

import (
	"context"

	"github.com/evopti/chargepilot/core/model"
)

// Client talks to the simulated charging environment. Implementations
// must honor ctx cancellation and deadlines on every call.
type Client interface {
	// BaseLoad fetches the 24-hour household load profile in kW.
	BaseLoad(ctx context.Context) (model.HourlyProfile, error)
	// PricePerHour fetches the 24-hour spot price profile in öre/kWh.
	PricePerHour(ctx context.Context) (model.HourlyProfile, error)
	// Info fetches current telemetry: simulated clock, household load
	// and battery energy.
	Info(ctx context.Context) (model.Telemetry, error)
	// SetCharging switches the charger on or off.
	SetCharging(ctx context.Context, on bool) error
	// SetDischarging switches household discharge on or off. Turning
	// it on rewinds the simulated day to hour zero.
	SetDischarging(ctx context.Context, on bool) error
}
