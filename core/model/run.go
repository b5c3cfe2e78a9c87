package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RunMode selects the cost profile the optimizer minimizes.
type RunMode int

const (
	// ModeByLoad schedules charging into the hours with the lowest
	// household base load.
	ModeByLoad RunMode = iota
	// ModeByPrice schedules charging into the hours with the lowest
	// spot price.
	ModeByPrice
)

// String returns the wire/CLI name of the mode.
func (m RunMode) String() string {
	switch m {
	case ModeByLoad:
		return "load"
	case ModeByPrice:
		return "price"
	default:
		return "unknown"
	}
}

// ParseRunMode maps a CLI or API mode name to a RunMode.
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "load", "":
		return ModeByLoad, nil
	case "price":
		return ModeByPrice, nil
	default:
		return ModeByLoad, fmt.Errorf("unknown run mode %q", s)
	}
}

// Schedule marks for each hour of the day whether the charger should be
// on during that hour.
type Schedule [ProfileHours]bool

// Hours returns the scheduled hours in ascending order.
func (s Schedule) Hours() []int {
	var hours []int
	for h, on := range s {
		if on {
			hours = append(hours, h)
		}
	}
	return hours
}

// Count returns the number of scheduled hours.
func (s Schedule) Count() int {
	n := 0
	for _, on := range s {
		if on {
			n++
		}
	}
	return n
}

// String renders the schedule as the list of scheduled hours, e.g.
// "[2 3 4 23]". An empty schedule renders as "[]".
func (s Schedule) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, h := range s.Hours() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(h))
	}
	b.WriteByte(']')
	return b.String()
}

// Plan is the outcome of the scheduling prologue: the profiles the
// decision was based on and the schedule derived from them.
type Plan struct {
	RunID       string        `json:"run_id"`
	Mode        RunMode       `json:"-"`
	BaseLoad    HourlyProfile `json:"base_load"`
	Prices      HourlyProfile `json:"prices"`
	Schedule    Schedule      `json:"schedule"`
	HoursNeeded int           `json:"hours_needed"`
}

// EnergySample is one point of the presentation series, produced once
// per control-loop tick.
type EnergySample struct {
	HourDecimal    float64 `json:"hour_decimal"`     // simulated time; the terminal sample is exactly 24
	SoCPercent     float64 `json:"soc_percent"`      // battery state of charge, 0..100
	LoadPercent    float64 `json:"load_percent"`     // site load incl. charger relative to the site cap
	TotalEnergyKWh float64 `json:"total_energy_kwh"` // cumulative household consumption since the start of the day
	Charging       bool    `json:"charging"`
}

// RunOutcome classifies how a run ended.
type RunOutcome int

const (
	OutcomeCompleted RunOutcome = iota // the simulated day finished
	OutcomeAborted                     // cancelled by the operator
	OutcomeFailed                      // a simulator call or decision step failed
)

// String returns a stable label for logs, metrics and the run history.
func (o RunOutcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult is the single end-of-run notification.
type RunResult struct {
	RunID     string
	Mode      RunMode
	Outcome   RunOutcome
	StartedAt time.Time
	EndedAt   time.Time
	Samples   int          // number of samples emitted
	Last      EnergySample // last emitted sample, zero if none
	Err       error        // primary failure, nil unless Outcome is OutcomeFailed
	SafetyErr error        // failure of the final charger-off command, if any
}

// RunState is the lifecycle state of the controller.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
)

// String returns the lifecycle state label.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its label.
func (s RunState) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON decodes a state label.
func (s *RunState) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err != nil {
		return err
	}
	switch label {
	case "idle":
		*s = StateIdle
	case "running":
		*s = StateRunning
	default:
		return fmt.Errorf("unknown run state %q", label)
	}
	return nil
}

// RunStatus is a point-in-time snapshot of the controller, served by
// the status endpoint.
type RunStatus struct {
	State RunState     `json:"state"`
	RunID string       `json:"run_id,omitempty"`
	Mode  string       `json:"mode,omitempty"`
	Last  EnergySample `json:"last_sample"`
	Ticks int          `json:"ticks"`
}
