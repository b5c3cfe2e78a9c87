package sim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evopti/chargepilot/core/charger"
	"github.com/evopti/chargepilot/core/model"
)

// fakeClient scripts the simulator: profiles, a queue of telemetry
// readings (the last one repeats once exhausted) and recorded commands.
type fakeClient struct {
	mu        sync.Mutex
	baseLoad  []float64
	prices    []float64
	readings  []model.Telemetry
	idx       int
	infoCalls int
	infoErrAt map[int]error // 1-based Info call number -> error
	chargeErr error
	loadErr   error
	cmds      []string
}

func (f *fakeClient) BaseLoad(context.Context) (model.HourlyProfile, error) {
	if f.loadErr != nil {
		return model.HourlyProfile{}, f.loadErr
	}
	return model.NewHourlyProfile(f.baseLoad)
}

func (f *fakeClient) PricePerHour(context.Context) (model.HourlyProfile, error) {
	return model.NewHourlyProfile(f.prices)
}

func (f *fakeClient) Info(context.Context) (model.Telemetry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if err := f.infoErrAt[f.infoCalls]; err != nil {
		return model.Telemetry{}, err
	}
	if f.idx < len(f.readings) {
		t := f.readings[f.idx]
		f.idx++
		return t, nil
	}
	return f.readings[len(f.readings)-1], nil
}

func (f *fakeClient) SetCharging(_ context.Context, on bool) error {
	if f.chargeErr != nil {
		return f.chargeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.cmds = append(f.cmds, "charge on")
	} else {
		f.cmds = append(f.cmds, "charge off")
	}
	return nil
}

func (f *fakeClient) SetDischarging(_ context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.cmds = append(f.cmds, "discharge on")
	} else {
		f.cmds = append(f.cmds, "discharge off")
	}
	return nil
}

func (f *fakeClient) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	copy(out, f.cmds)
	return out
}

// recordingSink captures the presentation stream.
type recordingSink struct {
	mu      sync.Mutex
	plans   []model.Plan
	samples []model.EnergySample
	results []model.RunResult
}

func (s *recordingSink) OnPlan(p model.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = append(s.plans, p)
}

func (s *recordingSink) OnSample(sample model.EnergySample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
}

func (s *recordingSink) OnRunEnded(r model.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *recordingSink) sampleSeries() []model.EnergySample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EnergySample, len(s.samples))
	copy(out, s.samples)
	return out
}

func flat(v float64) []float64 {
	out := make([]float64, model.ProfileHours)
	for i := range out {
		out[i] = v
	}
	return out
}

func tel(hour, minute int, kwh float64) model.Telemetry {
	return model.Telemetry{SimHour: hour, SimMinute: minute, BaseLoadKW: 1, BatteryKWh: kwh}
}

func testConfig() Config {
	return Config{
		TickInterval: time.Millisecond,
		CallTimeout:  100 * time.Millisecond,
	}
}

func waitResult(t *testing.T, c *Controller) model.RunResult {
	t.Helper()
	select {
	case r := <-c.Done():
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
		return model.RunResult{}
	}
}

// A full simulated day: the charger turns on in the scheduled cheap
// hours, off when the schedule ends, and the wrap past midnight yields
// one terminal sample at exactly 24h.
func TestRunCompletesAtDayEnd(t *testing.T) {
	// Low battery: (46.3 - 9.26) / 7.4 = 5.005 -> 5 hours, scheduled
	// into hours 0..4 of a flat profile.
	readings := []model.Telemetry{tel(0, 0, 9.26)} // seed
	for h := 0; h < model.ProfileHours; h++ {
		readings = append(readings, tel(h, 0, 9.26))
	}
	readings = append(readings, tel(0, 0, 9.26)) // wrap ends the day
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: readings}
	sink := &recordingSink{}
	c, err := New(fc, testConfig(), sink, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := c.Start(context.Background(), model.ModeByLoad)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}
	res := waitResult(t, c)

	if res.Outcome != model.OutcomeCompleted {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
	if res.RunID != id {
		t.Fatalf("result run id %q != %q", res.RunID, id)
	}

	samples := sink.sampleSeries()
	// Seed + 24 hourly ticks + terminal sample.
	if len(samples) != 26 {
		t.Fatalf("samples = %d, want 26", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].HourDecimal < samples[i-1].HourDecimal {
			t.Fatalf("hour went backwards at %d: %v -> %v", i, samples[i-1].HourDecimal, samples[i].HourDecimal)
		}
	}
	terminal := 0
	for _, s := range samples {
		if s.HourDecimal == 24 {
			terminal++
		}
	}
	if terminal != 1 || samples[len(samples)-1].HourDecimal != 24 {
		t.Fatalf("expected a single terminal 24h sample at the end, got %d", terminal)
	}

	cmds := fc.commands()
	if cmds[0] != "discharge on" {
		t.Fatalf("first command = %q", cmds[0])
	}
	if cmds[len(cmds)-1] != "charge off" {
		t.Fatalf("last command = %q, want charge off", cmds[len(cmds)-1])
	}
	st := c.Status()
	if st.State != model.StateIdle {
		t.Fatalf("state after run = %v", st.State)
	}
}

// A battery reaching the target mid-hour switches off even though the
// hour is still scheduled.
func TestTargetCapacityBeatsSchedule(t *testing.T) {
	// (46.3 - 30) / 7.4 = 2.2 -> 2 hours, scheduled into hours 0 and 1.
	readings := []model.Telemetry{
		tel(0, 0, 30),    // seed
		tel(0, 0, 30),    // tick 1: on
		tel(0, 30, 37.1), // tick 2: above 37.04 target, off mid-hour
		tel(1, 0, 37.1),  // tick 3: stays off
		tel(0, 0, 37.1),  // wrap
	}
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: readings}
	sink := &recordingSink{}
	c, err := New(fc, testConfig(), sink, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeCompleted {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}

	want := []string{"discharge on", "charge on", "charge off"}
	got := fc.commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}
	// The plan still had hour 0 scheduled; capacity won.
	if len(sink.plans) != 1 || !sink.plans[0].Schedule[0] {
		t.Fatalf("expected hour 0 scheduled in the plan: %+v", sink.plans)
	}
	samples := sink.sampleSeries()
	if !samples[1].Charging {
		t.Fatal("tick 1 should be charging")
	}
	if samples[2].Charging {
		t.Fatal("tick 2 should have stopped charging")
	}
}

func TestSecondStartRejected(t *testing.T) {
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: []model.Telemetry{tel(0, 0, 40)}}
	cfg := testConfig()
	cfg.TickInterval = 20 * time.Millisecond
	c, err := New(fc, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByPrice); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByPrice); !errors.Is(err, ErrRunActive) {
		t.Fatalf("second start: %v, want ErrRunActive", err)
	}
	c.Abort()
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeAborted {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	// Idle again: a third start is accepted.
	if _, err := c.Start(context.Background(), model.ModeByPrice); err != nil {
		t.Fatalf("restart after abort: %v", err)
	}
	c.Abort()
	waitResult(t, c)
}

// Aborting while the charger is on must still end with an off command.
func TestAbortIssuesSafetyOff(t *testing.T) {
	// Battery far below target and every hour cheap: charging turns on
	// at the first tick and never stops on its own.
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: []model.Telemetry{tel(0, 0, 9.26)}}
	c, err := New(fc, testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Give the loop a moment to switch the charger on.
	deadline := time.Now().Add(2 * time.Second)
	for {
		cmds := fc.commands()
		if len(cmds) >= 2 && cmds[1] == "charge on" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("charger never turned on: %v", cmds)
		}
		time.Sleep(time.Millisecond)
	}

	c.Abort()
	c.Abort() // idempotent
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeAborted {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	cmds := fc.commands()
	if cmds[len(cmds)-1] != "charge off" {
		t.Fatalf("last command = %q, want charge off", cmds[len(cmds)-1])
	}
	if res.SafetyErr != nil {
		t.Fatalf("safety error: %v", res.SafetyErr)
	}
	// Aborting the now-idle controller stays a no-op.
	c.Abort()
}

func TestStartFailsSynchronouslyOnFetchError(t *testing.T) {
	fc := &fakeClient{
		baseLoad: flat(1),
		prices:   flat(2),
		readings: []model.Telemetry{tel(0, 0, 40)},
		loadErr:  &charger.APIError{Endpoint: "/baseload", Status: 502},
	}
	c, err := New(fc, testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Start(context.Background(), model.ModeByLoad)
	if err == nil {
		t.Fatal("expected start to fail")
	}
	if !charger.IsAPIError(err) {
		t.Fatalf("expected an API error, got %v", err)
	}
	if !strings.Contains(err.Error(), "starting run") {
		t.Fatalf("error lacks context: %v", err)
	}
	if st := c.Status(); st.State != model.StateIdle {
		t.Fatalf("state = %v, want idle", st.State)
	}
	select {
	case r := <-c.Done():
		t.Fatalf("unexpected result: %+v", r)
	default:
	}

	// The controller recovers once the simulator does.
	fc.loadErr = nil
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("restart: %v", err)
	}
	c.Abort()
	waitResult(t, c)
}

func TestTelemetryRetryBudgetExhaustion(t *testing.T) {
	apiErr := &charger.APIError{Endpoint: "/info", Err: errors.New("connection refused")}
	fc := &fakeClient{
		baseLoad:  flat(1),
		prices:    flat(2),
		readings:  []model.Telemetry{tel(0, 0, 40)},
		infoErrAt: map[int]error{2: apiErr, 3: apiErr, 4: apiErr},
	}
	cfg := testConfig()
	cfg.MaxTelemetryFailures = 3
	c, err := New(fc, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeFailed {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if !charger.IsAPIError(res.Err) {
		t.Fatalf("expected API error, got %v", res.Err)
	}
}

func TestTelemetryFailuresBelowBudgetAreRetried(t *testing.T) {
	apiErr := &charger.APIError{Endpoint: "/info", Err: errors.New("connection refused")}
	readings := []model.Telemetry{
		tel(0, 0, 40), // seed
		tel(0, 0, 40), // tick 1
		// Info calls 3 and 4 fail, then the day wraps.
		tel(0, 0, 40),
	}
	fc := &fakeClient{
		baseLoad:  flat(1),
		prices:    flat(2),
		readings:  readings,
		infoErrAt: map[int]error{3: apiErr, 4: apiErr},
	}
	cfg := testConfig()
	cfg.MaxTelemetryFailures = 3
	c, err := New(fc, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// End the run by hand; two failures must not kill it.
	time.Sleep(50 * time.Millisecond)
	c.Abort()
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeAborted {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
	if fc.infoCalls < 4 {
		t.Fatalf("expected the loop to keep polling, got %d calls", fc.infoCalls)
	}
}

func TestActuationFailureFailsRun(t *testing.T) {
	fc := &fakeClient{
		baseLoad:  flat(1),
		prices:    flat(2),
		readings:  []model.Telemetry{tel(0, 0, 9.26)},
		chargeErr: &charger.APIError{Endpoint: "/charge", Status: 500},
	}
	c, err := New(fc, testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeFailed {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "starting charge") {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	fc := &fakeClient{baseLoad: flat(1), prices: flat(1), readings: []model.Telemetry{tel(0, 0, 1)}}
	if _, err := New(nil, Config{}, nil, nil); err == nil {
		t.Fatal("nil client accepted")
	}
	bad := Config{TargetSOC: 1.5}
	if _, err := New(fc, bad, nil, nil); err == nil {
		t.Fatal("target_soc 1.5 accepted")
	} else {
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "target_soc" {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	neg := Config{ChargerPowerKW: -1}
	if _, err := New(fc, neg, nil, nil); err == nil {
		t.Fatal("negative charger power accepted")
	}
}

func TestStatusWhileRunning(t *testing.T) {
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: []model.Telemetry{tel(0, 0, 40)}}
	cfg := testConfig()
	cfg.TickInterval = 20 * time.Millisecond
	c, err := New(fc, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := c.Start(context.Background(), model.ModeByPrice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	st := c.Status()
	if st.State != model.StateRunning || st.RunID != id || st.Mode != "price" {
		t.Fatalf("status = %+v", st)
	}
	if st.Ticks < 1 {
		t.Fatalf("seed sample not counted: %+v", st)
	}
	c.Abort()
	waitResult(t, c)
}

// Cancelling the context passed to Start behaves like Abort.
func TestStartContextCancelAborts(t *testing.T) {
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: []model.Telemetry{tel(0, 0, 40)}}
	c, err := New(fc, testConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.Start(ctx, model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeAborted {
		t.Fatalf("outcome = %v", res.Outcome)
	}
}

// A panicking sink must not kill the run.
type panickySink struct{ NopSink }

func (panickySink) OnSample(model.EnergySample) { panic("bad sink") }

func TestSinkPanicIsContained(t *testing.T) {
	readings := []model.Telemetry{tel(0, 0, 40), tel(1, 0, 40), tel(0, 0, 40)}
	fc := &fakeClient{baseLoad: flat(1), prices: flat(2), readings: readings}
	c, err := New(fc, testConfig(), panickySink{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Start(context.Background(), model.ModeByLoad); err != nil {
		t.Fatalf("Start: %v", err)
	}
	res := waitResult(t, c)
	if res.Outcome != model.OutcomeCompleted {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
}
