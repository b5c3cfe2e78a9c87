package sim

import "github.com/evopti/chargepilot/core/model"

// Accounting derives the whole-day energy figure from a telemetry
// reading. The figure is recomputed from scratch on every tick rather
// than accumulated, so a skipped or repeated tick cannot drift it.
//
// The total counts everything the household consumed since the start
// of the simulated day: the energy that went into the battery plus the
// base load integrated hour by hour, with the running hour weighted by
// its minutes.
type Accounting struct {
	baseLoad        model.HourlyProfile
	batteryStartKWh float64
}

// NewAccounting seeds the ledger with the day's base-load profile and
// the battery energy the day starts with (pack size times the start
// state of charge).
func NewAccounting(baseLoad model.HourlyProfile, packKWh, startSOC float64) Accounting {
	return Accounting{baseLoad: baseLoad, batteryStartKWh: packKWh * startSOC}
}

// TotalEnergyKWh returns the cumulative consumption through the given
// simulated instant. simHour may be the clamped terminal value 24, in
// which case the whole profile is summed and the minute fraction reads
// from the last hour.
func (a Accounting) TotalEnergyKWh(batteryNowKWh float64, simHour, simMinute int) float64 {
	idx := simHour
	if idx > model.ProfileHours-1 {
		idx = model.ProfileHours - 1
	}
	whole := a.baseLoad.SumRange(0, simHour)
	frac := a.baseLoad[idx] * float64(simMinute) / 60
	return batteryNowKWh - a.batteryStartKWh + whole + frac
}
