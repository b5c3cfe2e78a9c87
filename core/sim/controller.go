// Package sim runs charging sessions against the simulator: it plans a
// schedule from the day's profiles, then drives the charger tick by
// tick until the simulated day ends, the operator aborts, or the
// simulator fails.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evopti/chargepilot/core/charger"
	"github.com/evopti/chargepilot/core/logger"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/core/monitoring"
	"github.com/evopti/chargepilot/core/scheduler"
)

// ErrRunActive is returned by Start while another session is running.
var ErrRunActive = errors.New("a charging run is already active")

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Config holds the physical constants and loop tuning of a session.
type Config struct {
	ChargerPowerKW       float64       `json:"charger_power_kw"`       // charger draw while on, kW
	PackKWh              float64       `json:"pack_kwh"`               // battery capacity, kWh
	TargetSOC            float64       `json:"target_soc"`             // stop charging at this state of charge, in (0,1]
	StartSOC             float64       `json:"start_soc"`              // battery level the simulated day starts with, in (0,1]
	SiteCapKW            float64       `json:"site_cap_kw"`            // site fuse rating, kW
	TickInterval         time.Duration `json:"tick_interval"`          // pacing between control ticks
	CallTimeout          time.Duration `json:"call_timeout"`           // budget for a single simulator call
	MaxTelemetryFailures int           `json:"max_telemetry_failures"` // consecutive telemetry failures that fail the run
}

// SetDefaults fills the course constants for any zero field.
func (c *Config) SetDefaults() {
	if c.ChargerPowerKW == 0 {
		c.ChargerPowerKW = 7.4
	}
	if c.PackKWh == 0 {
		c.PackKWh = 46.3
	}
	if c.TargetSOC == 0 {
		c.TargetSOC = 0.8
	}
	if c.StartSOC == 0 {
		c.StartSOC = 0.2
	}
	if c.SiteCapKW == 0 {
		c.SiteCapKW = 11
	}
	if c.TickInterval == 0 {
		c.TickInterval = 4 * time.Second
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = 5 * time.Second
	}
	if c.MaxTelemetryFailures == 0 {
		c.MaxTelemetryFailures = 3
	}
}

// Validate rejects constants the planner cannot work with.
func (c Config) Validate() error {
	if c.ChargerPowerKW <= 0 {
		return &model.ConfigError{Field: "charger_power_kw", Reason: "must be positive"}
	}
	if c.PackKWh <= 0 {
		return &model.ConfigError{Field: "pack_kwh", Reason: "must be positive"}
	}
	if c.TargetSOC <= 0 || c.TargetSOC > 1 {
		return &model.ConfigError{Field: "target_soc", Reason: "must be in (0,1]"}
	}
	if c.StartSOC <= 0 || c.StartSOC > 1 {
		return &model.ConfigError{Field: "start_soc", Reason: "must be in (0,1]"}
	}
	if c.SiteCapKW <= 0 {
		return &model.ConfigError{Field: "site_cap_kw", Reason: "must be positive"}
	}
	if c.TickInterval < 0 {
		return &model.ConfigError{Field: "tick_interval", Reason: "must not be negative"}
	}
	if c.MaxTelemetryFailures < 1 {
		return &model.ConfigError{Field: "max_telemetry_failures", Reason: "must be at least 1"}
	}
	return nil
}

// Controller drives at most one charging session at a time.
type Controller struct {
	client charger.Client
	cfg    Config
	sink   Sink
	log    logger.Logger

	done chan model.RunResult

	mu     sync.Mutex
	state  model.RunState
	cancel context.CancelFunc
	runID  string
	mode   model.RunMode
	last   model.EnergySample
	ticks  int
}

// run is the per-session state owned by the loop goroutine.
type run struct {
	id        string
	mode      model.RunMode
	startedAt time.Time
	baseLoad  model.HourlyProfile
	schedule  model.Schedule
	acct      Accounting
	targetKWh float64
	charging  bool
	lastHour  int
	samples   int
	last      model.EnergySample
}

func (r *run) record(s model.EnergySample) {
	r.samples++
	r.last = s
}

// New builds a controller. sink and log may be nil.
func New(client charger.Client, cfg Config, sink Sink, log logger.Logger) (*Controller, error) {
	if client == nil {
		return nil, fmt.Errorf("charger client is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Controller{
		client: client,
		cfg:    cfg,
		sink:   sink,
		log:    log,
		done:   make(chan model.RunResult, 1),
	}, nil
}

// Start begins a session in the given mode. The planning prologue runs
// synchronously: the discharge reset, the three fetches and the
// schedule computation happen before Start returns, so a broken
// simulator surfaces here and no goroutine is left behind. On success
// the tick loop is already running and the run ID is returned.
//
// Cancelling ctx aborts the session the same way Abort does.
func (c *Controller) Start(ctx context.Context, mode model.RunMode) (string, error) {
	c.mu.Lock()
	if c.state == model.StateRunning {
		c.mu.Unlock()
		return "", ErrRunActive
	}
	c.state = model.StateRunning
	runID := uuid.NewString()
	c.runID = runID
	c.mode = mode
	c.ticks = 0
	c.last = model.EnergySample{}
	c.mu.Unlock()

	r, err := c.prologue(ctx, runID, mode)
	if err != nil {
		c.mu.Lock()
		c.state = model.StateIdle
		c.runID = ""
		c.mu.Unlock()
		return "", fmt.Errorf("starting run: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go c.loop(runCtx, r)
	return runID, nil
}

// Abort requests cooperative cancellation and returns immediately.
// Aborting an idle controller is a no-op. The loop notices at the top
// of its next tick, so an in-flight simulator call finishes first.
func (c *Controller) Abort() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done returns the channel delivering one result per run, sent only
// after the final charger-off safety command. A result nobody claimed
// is dropped in favor of the next run's.
func (c *Controller) Done() <-chan model.RunResult {
	return c.done
}

// Status returns a snapshot for the status endpoint.
func (c *Controller) Status() model.RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := model.RunStatus{State: c.state, Last: c.last, Ticks: c.ticks}
	if c.state == model.StateRunning {
		st.RunID = c.runID
		st.Mode = c.mode.String()
	}
	return st
}

// prologue resets the simulated day, fetches profiles and telemetry,
// computes the schedule and emits the plan plus the seed sample.
func (c *Controller) prologue(ctx context.Context, runID string, mode model.RunMode) (*run, error) {
	startedAt := time.Now()

	cctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	err := c.client.SetDischarging(cctx, true)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("resetting simulated day: %w", err)
	}

	cctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
	baseLoad, err := c.client.BaseLoad(cctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetching base load: %w", err)
	}

	cctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
	prices, err := c.client.PricePerHour(cctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}

	cctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
	tel, err := c.client.Info(cctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetching telemetry: %w", err)
	}

	needed := scheduler.HoursNeeded(tel.BatteryKWh, c.cfg.PackKWh, c.cfg.ChargerPowerKW)
	costs := baseLoad
	if mode == model.ModeByPrice {
		costs = prices
	}
	feasible := func(h int) bool {
		return scheduler.FitsUnderSiteCap(c.cfg.SiteCapKW, baseLoad[h], c.cfg.ChargerPowerKW)
	}
	schedule := scheduler.ComputeSchedule(costs, needed, feasible)
	c.log.Infof("run %s planned: mode=%s hours_needed=%d scheduled=%s", runID, mode, needed, schedule)

	r := &run{
		id:        runID,
		mode:      mode,
		startedAt: startedAt,
		baseLoad:  baseLoad,
		schedule:  schedule,
		acct:      NewAccounting(baseLoad, c.cfg.PackKWh, c.cfg.StartSOC),
		targetKWh: c.cfg.PackKWh * c.cfg.TargetSOC,
	}

	plan := model.Plan{
		RunID:       runID,
		Mode:        mode,
		BaseLoad:    baseLoad,
		Prices:      prices,
		Schedule:    schedule,
		HoursNeeded: needed,
	}
	c.emit(func() { c.sink.OnPlan(plan) })

	seed := c.buildSample(r, tel)
	r.record(seed)
	c.noteSample(seed)
	c.emit(func() { c.sink.OnSample(seed) })
	return r, nil
}

// loop is the tick loop. It owns r and exits through finish on every
// path.
func (c *Controller) loop(ctx context.Context, r *run) {
	outcome := model.OutcomeCompleted
	var runErr error
	failures := 0

	for {
		if ctx.Err() != nil {
			outcome = model.OutcomeAborted
			break
		}

		tel, err := c.fetchInfo()
		if err != nil {
			failures++
			c.log.Warnf("run %s: telemetry fetch failed (%d/%d): %v", r.id, failures, c.cfg.MaxTelemetryFailures, err)
			if failures >= c.cfg.MaxTelemetryFailures {
				outcome = model.OutcomeFailed
				runErr = fmt.Errorf("fetching telemetry: %w", err)
				break
			}
			c.pace(ctx)
			continue
		}
		failures = 0

		// The simulator wraps past midnight back to hour 0; seeing the
		// clock move backwards marks the final tick, reported as 24h00.
		final := tel.SimHour < r.lastHour
		if final {
			tel.SimHour, tel.SimMinute = model.ProfileHours, 0
		} else {
			r.lastHour = tel.SimHour
		}
		idx := tel.SimHour
		if idx > model.ProfileHours-1 {
			idx = model.ProfileHours - 1
		}

		// A full battery stops the charger even mid-scheduled-hour.
		if r.charging && (tel.BatteryKWh >= r.targetKWh || !r.schedule[idx]) {
			if err := c.setCharging(false); err != nil {
				outcome = model.OutcomeFailed
				runErr = fmt.Errorf("stopping charge: %w", err)
				break
			}
			r.charging = false
			c.log.Debugf("run %s: charger off at %dh%02d soc=%.1f%%", r.id, tel.SimHour, tel.SimMinute, 100*tel.BatteryKWh/c.cfg.PackKWh)
		} else if !r.charging && tel.BatteryKWh < r.targetKWh && r.schedule[idx] {
			if err := c.setCharging(true); err != nil {
				outcome = model.OutcomeFailed
				runErr = fmt.Errorf("starting charge: %w", err)
				break
			}
			r.charging = true
			c.log.Debugf("run %s: charger on at %dh%02d soc=%.1f%%", r.id, tel.SimHour, tel.SimMinute, 100*tel.BatteryKWh/c.cfg.PackKWh)
		}

		sample := c.buildSample(r, tel)
		r.record(sample)
		c.noteSample(sample)
		c.emit(func() { c.sink.OnSample(sample) })

		if final {
			break
		}
		c.pace(ctx)
	}

	c.finish(r, outcome, runErr)
}

// finish runs the safety step, resets the controller and delivers the
// result. The final command for a session that ever charged is "off".
func (c *Controller) finish(r *run, outcome model.RunOutcome, runErr error) {
	var safetyErr error
	if r.charging {
		cctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
		if err := c.client.SetCharging(cctx, false); err != nil {
			safetyErr = fmt.Errorf("final charger stop: %w", err)
			c.log.Errorf("run %s: %v", r.id, safetyErr)
			monitoring.CaptureException(safetyErr, map[string]string{"run_id": r.id})
		} else {
			r.charging = false
		}
		cancel()
	}

	result := model.RunResult{
		RunID:     r.id,
		Mode:      r.mode,
		Outcome:   outcome,
		StartedAt: r.startedAt,
		EndedAt:   time.Now(),
		Samples:   r.samples,
		Last:      r.last,
		Err:       runErr,
		SafetyErr: safetyErr,
	}
	if runErr != nil {
		monitoring.CaptureException(runErr, map[string]string{"run_id": r.id, "mode": r.mode.String()})
	}

	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.state = model.StateIdle
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.emit(func() { c.sink.OnRunEnded(result) })
	select {
	case <-c.done:
	default:
	}
	c.done <- result
	c.log.Infof("run %s %s: samples=%d energy=%.2fkWh", r.id, outcome, result.Samples, result.Last.TotalEnergyKWh)
}

// buildSample derives the presentation point for one telemetry reading.
func (c *Controller) buildSample(r *run, tel model.Telemetry) model.EnergySample {
	idx := tel.SimHour
	if idx > model.ProfileHours-1 {
		idx = model.ProfileHours - 1
	}
	load := r.baseLoad[idx]
	if r.charging {
		load += c.cfg.ChargerPowerKW
	}
	return model.EnergySample{
		HourDecimal:    tel.HourDecimal(),
		SoCPercent:     100 * tel.BatteryKWh / c.cfg.PackKWh,
		LoadPercent:    100 * load / c.cfg.SiteCapKW,
		TotalEnergyKWh: r.acct.TotalEnergyKWh(tel.BatteryKWh, tel.SimHour, tel.SimMinute),
		Charging:       r.charging,
	}
}

func (c *Controller) noteSample(s model.EnergySample) {
	c.mu.Lock()
	c.last = s
	c.ticks++
	c.mu.Unlock()
}

// fetchInfo and setCharging run on their own timeout, detached from
// the run context: an abort lets the in-flight call finish.
func (c *Controller) fetchInfo() (model.Telemetry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
	defer cancel()
	return c.client.Info(ctx)
}

func (c *Controller) setCharging(on bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
	defer cancel()
	return c.client.SetCharging(ctx, on)
}

// pace sleeps one tick interval, cut short by cancellation.
func (c *Controller) pace(ctx context.Context) {
	t := time.NewTimer(c.cfg.TickInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// emit shields the loop from a misbehaving sink.
func (c *Controller) emit(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("presentation sink panic: %v", rec)
			c.log.Errorf("%v", err)
			monitoring.CaptureException(err, nil)
		}
	}()
	fn()
}
