package metrics

import (
	coremetrics "github.com/evopti/chargepilot/core/metrics"
	"github.com/evopti/chargepilot/core/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes the charging run as Prometheus metrics.
type PromSink struct {
	soc       prometheus.Gauge
	siteLoad  prometheus.Gauge
	energy    prometheus.Gauge
	charging  prometheus.Gauge
	scheduled prometheus.Gauge
	ticks     prometheus.Counter
	runs      *prometheus.CounterVec
}

// NewPromSink registers charging metrics on the default Prometheus
// registerer. The Prometheus server is started separately by the app.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.soc, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "chargepilot_soc_percent",
		Help: "Battery state of charge of the simulated vehicle",
	}); err != nil {
		return nil, err
	}
	if s.siteLoad, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "chargepilot_site_load_percent",
		Help: "Household load including the charger relative to the site cap",
	}); err != nil {
		return nil, err
	}
	if s.energy, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "chargepilot_total_energy_kwh",
		Help: "Cumulative household energy drawn since the start of the simulated day",
	}); err != nil {
		return nil, err
	}
	if s.charging, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "chargepilot_charging",
		Help: "Whether the charger is currently on (1) or off (0)",
	}); err != nil {
		return nil, err
	}
	if s.scheduled, err = registerGauge(reg, prometheus.GaugeOpts{
		Name: "chargepilot_scheduled_hours",
		Help: "Number of hours selected by the last computed plan",
	}); err != nil {
		return nil, err
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargepilot_ticks_total",
		Help: "Total number of control loop ticks",
	})
	if err := reg.Register(ticks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ticks = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	s.ticks = ticks

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chargepilot_runs_total",
		Help: "Total number of finished runs by outcome",
	}, []string{"outcome"})
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	s.runs = runs

	return s, nil
}

func registerGauge(reg prometheus.Registerer, opts prometheus.GaugeOpts) (prometheus.Gauge, error) {
	g := prometheus.NewGauge(opts)
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge), nil
		}
		return nil, err
	}
	return g, nil
}

// RecordSample updates the point-in-time gauges and the tick counter.
func (s *PromSink) RecordSample(sample model.EnergySample) error {
	s.soc.Set(sample.SoCPercent)
	s.siteLoad.Set(sample.LoadPercent)
	s.energy.Set(sample.TotalEnergyKWh)
	if sample.Charging {
		s.charging.Set(1)
	} else {
		s.charging.Set(0)
	}
	s.ticks.Inc()
	return nil
}

// RecordPlan sets the scheduled hours gauge.
func (s *PromSink) RecordPlan(p model.Plan) error {
	s.scheduled.Set(float64(p.Schedule.Count()))
	return nil
}

// RecordRunEnded increments the run counter for the outcome.
func (s *PromSink) RecordRunEnded(r model.RunResult) error {
	s.runs.WithLabelValues(r.Outcome.String()).Inc()
	return nil
}
