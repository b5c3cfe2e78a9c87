// Package config loads the client configuration from a JSON or YAML
// file with CP_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/evopti/chargepilot/api"
	"github.com/evopti/chargepilot/core/metrics"
	"github.com/evopti/chargepilot/core/sim"
	"github.com/evopti/chargepilot/infra/mqtt"
	"github.com/evopti/chargepilot/infra/simserver"
)

type Config struct {
	Charger    ChargerConfig    `json:"charger"`
	Simulation sim.Config       `json:"simulation"`
	Simulator  simserver.Config `json:"simulator"`
	Metrics    metrics.Config   `json:"metrics"`
	MQTT       mqtt.Config      `json:"mqtt"`
	API        api.Config       `json:"api"`
	RunLog     RunLogConfig     `json:"runlog"`
	Sentry     SentryConfig     `json:"sentry"`
}

func (c *Config) setDefaults() {
	c.Charger.SetDefaults()
	c.API.SetDefaults()
	c.RunLog.SetDefaults()
}

// Default returns the configuration used when no file is given: local
// simulator, jsonl run log, no external backends.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// parserFor picks the koanf parser from the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
}

// envKey maps CP_CHARGER__BASE_URL to charger.base_url.
func envKey(raw string) string {
	key := strings.TrimPrefix(strings.ToLower(raw), "cp_")
	return strings.ReplaceAll(key, "__", ".")
}

// Load reads the file, applies CP_ environment overrides on top and
// validates the sections every command needs. Component sections
// validate themselves at construction.
func Load(path string) (*Config, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := k.Load(env.Provider("CP_", "__", envKey), nil); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.Charger.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RunLog.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
