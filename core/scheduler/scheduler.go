// Package scheduler picks the cheapest feasible charging hours of a
// simulated day. It is pure planning logic: no clocks, no I/O.
package scheduler

import (
	"math"
	"sort"

	"github.com/evopti/chargepilot/core/model"
)

// FeasibleFunc reports whether charging may run during the given hour.
type FeasibleFunc func(hour int) bool

// HoursNeeded returns the number of whole hours of charging required to
// fill the battery from currentKWh to maxKWh at chargerKW. The division
// truncates: a fraction of an hour of remaining need does not earn a
// scheduled hour.
func HoursNeeded(currentKWh, maxKWh, chargerKW float64) int {
	if chargerKW <= 0 {
		return 0
	}
	missing := maxKWh - currentKWh
	if missing <= 0 {
		return 0
	}
	return int(math.Floor(missing / chargerKW))
}

// FitsUnderSiteCap reports whether the charger can run on top of the
// given base load without exhausting the site fuse. Headroom must be
// strictly positive.
func FitsUnderSiteCap(siteCapKW, baseLoadKW, chargerKW float64) bool {
	return siteCapKW-(baseLoadKW+chargerKW) > 0
}

// ComputeSchedule selects up to hoursNeeded hours with the lowest cost
// and marks each selected hour feasible or not. Hours are ranked by
// cost ascending; equal costs keep their hour order. A selected hour
// that fails the feasibility check stays unscheduled and is not
// replaced by the next cheapest hour, so the schedule may hold fewer
// than hoursNeeded hours.
//
// hoursNeeded <= 0 yields an empty schedule without consulting
// feasible; hoursNeeded >= 24 consults it for every hour.
func ComputeSchedule(costs model.HourlyProfile, hoursNeeded int, feasible FeasibleFunc) model.Schedule {
	var schedule model.Schedule
	if hoursNeeded <= 0 {
		return schedule
	}
	if hoursNeeded > model.ProfileHours {
		hoursNeeded = model.ProfileHours
	}

	hours := make([]int, model.ProfileHours)
	for h := range hours {
		hours[h] = h
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return costs[hours[i]] < costs[hours[j]]
	})

	for _, h := range hours[:hoursNeeded] {
		schedule[h] = feasible(h)
	}
	return schedule
}
