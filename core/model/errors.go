package model

import "fmt"

// ConfigError reports an invalid constant or profile handed to the
// planner or controller. Configuration errors are fatal at
// construction time; nothing retries them.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
