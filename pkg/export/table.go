package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/evopti/chargepilot/core/model"
)

// RenderPlan prints the schedule as an hourly table followed by a
// summary of the scheduled-hour costs.
func RenderPlan(w io.Writer, p model.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "hour\tbase load kW\tprice\tcharge")
	for h := 0; h < model.ProfileHours; h++ {
		marker := ""
		if p.Schedule[h] {
			marker = "*"
		}
		fmt.Fprintf(tw, "%02d\t%.2f\t%.2f\t%s\n", h, p.BaseLoad[h], p.Prices[h], marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	scheduled := p.Schedule.Count()
	fmt.Fprintf(w, "\n%d of %d needed hours scheduled (%s mode)\n", scheduled, p.HoursNeeded, p.Mode)
	if scheduled == 0 {
		return nil
	}

	costs := scheduledCosts(p)
	fmt.Fprintf(w, "scheduled-hour cost: mean %.2f, min %.2f, max %.2f\n",
		stat.Mean(costs, nil), floats.Min(costs), floats.Max(costs))
	return nil
}

// RenderResult prints the one-line summary of a finished run.
func RenderResult(w io.Writer, r model.RunResult) {
	fmt.Fprintf(w, "run %s %s after %d samples: %.1f%% SoC, %.2f kWh consumed\n",
		r.RunID, r.Outcome, r.Samples, r.Last.SoCPercent, r.Last.TotalEnergyKWh)
	if r.Err != nil {
		fmt.Fprintf(w, "failure: %v\n", r.Err)
	}
	if r.SafetyErr != nil {
		fmt.Fprintf(w, "warning: final charger-off failed: %v\n", r.SafetyErr)
	}
}

// scheduledCosts picks the cost column the mode optimizes for, at the
// scheduled hours.
func scheduledCosts(p model.Plan) []float64 {
	profile := p.BaseLoad
	if p.Mode == model.ModeByPrice {
		profile = p.Prices
	}
	var costs []float64
	for _, h := range p.Schedule.Hours() {
		costs = append(costs, profile[h])
	}
	return costs
}
