package runlog

import (
	"fmt"

	"github.com/evopti/chargepilot/core/factory"
)

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a run store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates a Store from the configuration. An empty type yields
// the no-op store.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return storeRegistry.Create(cfg)
}

// fileOptions is the raw configuration shared by the file backed stores.
type fileOptions struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeFileOptions(conf map[string]any) (fileOptions, error) {
	opts := fileOptions{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
	if err := factory.Decode(conf, &opts); err != nil {
		return opts, err
	}
	if opts.Path == "" {
		return opts, fmt.Errorf("path is required")
	}
	return opts, nil
}

func init() {
	_ = RegisterStore("nop", func(map[string]any) (Store, error) {
		return NopStore{}, nil
	})
	_ = RegisterStore("jsonl", func(conf map[string]any) (Store, error) {
		opts, err := decodeFileOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(opts.Path)
	})
	_ = RegisterStore("jsonl_rotating", func(conf map[string]any) (Store, error) {
		opts, err := decodeFileOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (Store, error) {
		opts, err := decodeFileOptions(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(opts.Path)
	})
}
