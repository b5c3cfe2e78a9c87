package metrics

import "github.com/evopti/chargepilot/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort exposes /metrics on this address when non-empty,
	// e.g. ":2112". The port belongs to the app, not to a sink.
	PrometheusPort string `json:"prometheus_port"`
}
