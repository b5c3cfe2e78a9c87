package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/evopti/chargepilot/core/metrics"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

const influxTimeout = 5 * time.Second

// InfluxSink writes charging samples to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	opts := influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: influxTimeout})
	client := influxdb2.NewClientWithOptions(base, token, opts)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance first and
// returns a NopSink when the health check fails, so a missing database
// never blocks a run.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	switch {
	case err != nil:
		sink.log.Errorf("influx unreachable, sink disabled: %v", err)
	case health.Status != "pass":
		sink.log.Errorf("influx health %s, sink disabled", health.Status)
	default:
		return sink
	}
	sink.client.Close()
	return coremetrics.NopSink{}
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSample writes one charging sample as line protocol.
func (s *InfluxSink) RecordSample(sample model.EnergySample) error {
	return s.write(write.NewPointWithMeasurement("charge_sample").
		AddTag("component", "charge_loop").
		AddField("hour_decimal", round3(sample.HourDecimal)).
		AddField("soc_percent", round3(sample.SoCPercent)).
		AddField("load_percent", round3(sample.LoadPercent)).
		AddField("total_energy_kwh", round3(sample.TotalEnergyKWh)).
		AddField("charging", sample.Charging).
		SetTime(time.Now()))
}

// RecordPlan writes the computed schedule.
func (s *InfluxSink) RecordPlan(plan model.Plan) error {
	return s.write(write.NewPointWithMeasurement("charge_plan").
		AddTag("run_id", plan.RunID).
		AddTag("mode", plan.Mode.String()).
		AddTag("component", "charge_loop").
		AddField("hours_needed", plan.HoursNeeded).
		AddField("scheduled_hours", plan.Schedule.Count()).
		SetTime(time.Now()))
}

// RecordRunEnded writes the end-of-run summary.
func (s *InfluxSink) RecordRunEnded(r model.RunResult) error {
	return s.write(write.NewPointWithMeasurement("charge_run").
		AddTag("run_id", r.RunID).
		AddTag("mode", r.Mode.String()).
		AddTag("outcome", r.Outcome.String()).
		AddTag("component", "charge_loop").
		AddField("duration_seconds", round3(r.EndedAt.Sub(r.StartedAt).Seconds())).
		AddField("samples", r.Samples).
		AddField("final_soc_percent", round3(r.Last.SoCPercent)).
		AddField("total_energy_kwh", round3(r.Last.TotalEnergyKWh)).
		SetTime(r.EndedAt))
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
