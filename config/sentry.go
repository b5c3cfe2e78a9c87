package config

// SentryConfig configures exception reporting. An empty DSN disables
// it, which is the normal state for course work on a local simulator.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	Debug            bool    `json:"debug"`
}
