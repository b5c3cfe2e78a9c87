// Package export renders runs and plans for files and the terminal.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/core/runlog"
)

// WriteRecordsJSON writes run history records to w in JSON format.
func WriteRecordsJSON(w io.Writer, records []runlog.RunRecord) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteRecordsCSV writes run history records to w in CSV format, one
// row per run.
func WriteRecordsCSV(w io.Writer, records []runlog.RunRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "mode", "outcome", "started_at", "ended_at", "hours", "total_energy_kwh", "final_soc_percent"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.ID,
			r.Mode,
			r.Outcome,
			r.StartedAt.Format(time.RFC3339),
			r.EndedAt.Format(time.RFC3339),
			formatHours(r.Hours),
			strconv.FormatFloat(r.TotalEnergyKWh, 'f', -1, 64),
			strconv.FormatFloat(r.FinalSoCPercent, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamplesJSON writes one run's sample series to w in JSON format.
func WriteSamplesJSON(w io.Writer, samples []model.EnergySample) error {
	enc := json.NewEncoder(w)
	return enc.Encode(samples)
}

// WriteSamplesCSV writes one run's sample series to w in CSV format,
// one row per control tick.
func WriteSamplesCSV(w io.Writer, samples []model.EnergySample) error {
	cw := csv.NewWriter(w)
	header := []string{"hour_decimal", "soc_percent", "load_percent", "total_energy_kwh", "charging"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			strconv.FormatFloat(s.HourDecimal, 'f', -1, 64),
			strconv.FormatFloat(s.SoCPercent, 'f', -1, 64),
			strconv.FormatFloat(s.LoadPercent, 'f', -1, 64),
			strconv.FormatFloat(s.TotalEnergyKWh, 'f', -1, 64),
			strconv.FormatBool(s.Charging),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatHours(hours []int) string {
	out := ""
	for i, h := range hours {
		if i > 0 {
			out += " "
		}
		out += strconv.Itoa(h)
	}
	return out
}
