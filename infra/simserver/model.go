// Package simserver embeds a stand-in for the course's home-energy
// simulator. It serves the simulator wire protocol on a local port so
// the client, demos and integration tests can run without the real
// thing.
package simserver

import (
	"sync"
	"time"

	"github.com/evopti/chargepilot/core/model"
)

// Config sets up the simulated household. Enabled is read by the
// service to decide whether to start the embedded server alongside
// the client.
type Config struct {
	Enabled        bool                `json:"enabled"`
	Addr           string              `json:"addr"`
	PackKWh        float64             `json:"pack_kwh"`
	ChargerKW      float64             `json:"charger_kw"`
	StartSOC       float64             `json:"start_soc"`
	MinutesPerTick int                 `json:"minutes_per_tick"`
	TickInterval   time.Duration       `json:"tick_interval"`
	BaseLoad       model.HourlyProfile `json:"base_load"`
	Prices         model.HourlyProfile `json:"prices"`
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:5000"
	}
	if c.PackKWh <= 0 {
		c.PackKWh = 46.3
	}
	if c.ChargerKW <= 0 {
		c.ChargerKW = 7.4
	}
	if c.StartSOC <= 0 {
		c.StartSOC = 0.2
	}
	if c.MinutesPerTick <= 0 {
		c.MinutesPerTick = 15
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.BaseLoad == (model.HourlyProfile{}) {
		c.BaseLoad = DefaultBaseLoad
	}
	if c.Prices == (model.HourlyProfile{}) {
		c.Prices = DefaultPrices
	}
}

const minutesPerDay = 24 * 60

// Model is the simulated household state: a day clock, an EV battery
// and the charger switch. Discharge commands rewind the day; household
// discharge itself is not modeled.
type Model struct {
	cfg Config

	mu          sync.Mutex
	minutes     int // simulated minutes since 00:00, wraps at 24h
	batteryKWh  float64
	charging    bool
	discharging bool
}

// NewModel creates a household at 00:00 with the battery at start SOC.
func NewModel(cfg Config) *Model {
	cfg.setDefaults()
	return &Model{
		cfg:        cfg,
		batteryKWh: cfg.StartSOC * cfg.PackKWh,
	}
}

// Step advances the simulated clock by simMinutes, charging the
// battery for that span when the charger is on.
func (m *Model) Step(simMinutes int) {
	if simMinutes <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.charging {
		m.batteryKWh += m.cfg.ChargerKW * float64(simMinutes) / 60
		if m.batteryKWh > m.cfg.PackKWh {
			m.batteryKWh = m.cfg.PackKWh
		}
	}
	m.minutes = (m.minutes + simMinutes) % minutesPerDay
}

// Info reports the simulated clock and battery reading.
func (m *Model) Info() model.Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	hour := m.minutes / 60
	return model.Telemetry{
		SimHour:    hour,
		SimMinute:  m.minutes % 60,
		BaseLoadKW: m.cfg.BaseLoad[hour],
		BatteryKWh: m.batteryKWh,
	}
}

// SetCharging switches the charger.
func (m *Model) SetCharging(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charging = on
}

// SetDischarging switches household discharge. Turning it on rewinds
// the day to 00:00 and resets the battery to its start SOC.
func (m *Model) SetDischarging(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discharging = on
	if on {
		m.minutes = 0
		m.batteryKWh = m.cfg.StartSOC * m.cfg.PackKWh
		m.charging = false
	}
}

// BaseLoad returns the 24-hour household load profile.
func (m *Model) BaseLoad() model.HourlyProfile { return m.cfg.BaseLoad }

// Prices returns the 24-hour spot price profile.
func (m *Model) Prices() model.HourlyProfile { return m.cfg.Prices }

// Charging reports the charger switch state.
func (m *Model) Charging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.charging
}
