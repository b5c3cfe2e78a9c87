package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ProfileHours is the fixed length of every hourly profile the simulator
// serves. Profiles cover one day, one value per hour.
const ProfileHours = 24

// HourlyProfile holds one value per hour of the day, indexed 0..23.
// It is used both for household base load (kW) and for spot prices
// (öre/kWh); the unit is decided by the endpoint it came from.
type HourlyProfile [ProfileHours]float64

// NewHourlyProfile builds a profile from a raw slice. The slice must
// contain exactly 24 values.
func NewHourlyProfile(values []float64) (HourlyProfile, error) {
	var p HourlyProfile
	if len(values) != ProfileHours {
		return p, &ConfigError{Field: "profile", Reason: fmt.Sprintf("expected %d hourly values, got %d", ProfileHours, len(values))}
	}
	copy(p[:], values)
	return p, nil
}

// Sum returns the total over the whole day.
func (p HourlyProfile) Sum() float64 {
	return floats.Sum(p[:])
}

// SumRange returns the sum of the values in [lo, hi). Bounds are
// clamped to the profile, so SumRange(0, 24) equals Sum.
func (p HourlyProfile) SumRange(lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > ProfileHours {
		hi = ProfileHours
	}
	if lo >= hi {
		return 0
	}
	return floats.Sum(p[lo:hi])
}

// Min returns the smallest value and its hour. Ties resolve to the
// earliest hour.
func (p HourlyProfile) Min() (hour int, value float64) {
	hour, value = 0, p[0]
	for h := 1; h < ProfileHours; h++ {
		if p[h] < value {
			hour, value = h, p[h]
		}
	}
	return hour, value
}
