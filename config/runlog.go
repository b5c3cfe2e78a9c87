package config

import (
	"fmt"

	"github.com/evopti/chargepilot/core/factory"
)

// RunLogConfig defines where finished runs are persisted.
type RunLogConfig struct {
	// Backend selects the store type: "nop", "jsonl", "jsonl_rotating"
	// or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in
	// megabytes. Only the rotating backend reads it.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies a jsonl store next to the binary.
func (c *RunLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		if c.Backend == "sqlite" {
			c.Path = "chargepilot_runs.db"
		} else {
			c.Path = "chargepilot_runs.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c RunLogConfig) Validate() error {
	switch c.Backend {
	case "nop", "jsonl", "jsonl_rotating", "sqlite":
	default:
		return fmt.Errorf("unknown runlog backend %s", c.Backend)
	}
	if c.Backend != "nop" && c.Path == "" {
		return fmt.Errorf("runlog path is required")
	}
	return nil
}

// ModuleConfig converts the section into the factory shape the store
// registry decodes.
func (c RunLogConfig) ModuleConfig() factory.ModuleConfig {
	return factory.ModuleConfig{
		Type: c.Backend,
		Conf: map[string]any{
			"path":         c.Path,
			"max_size_mb":  c.MaxSizeMB,
			"max_backups":  c.MaxBackups,
			"max_age_days": c.MaxAgeDays,
		},
	}
}
