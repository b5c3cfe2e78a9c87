package model

// Telemetry is one reading from the simulator's info endpoint.
type Telemetry struct {
	SimHour    int     // simulated hour of day; raw values are 0..23, the control loop clamps the terminal tick to 24
	SimMinute  int     // simulated minute within the hour, 0..59
	BaseLoadKW float64 // household load excluding the charger, in kW
	BatteryKWh float64 // current battery energy in kWh
}

// HourDecimal returns the simulated time as a fractional hour,
// e.g. 13h30 -> 13.5.
func (t Telemetry) HourDecimal() float64 {
	return float64(t.SimHour) + float64(t.SimMinute)/60
}
