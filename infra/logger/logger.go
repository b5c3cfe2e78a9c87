package logger

import corelogger "github.com/evopti/chargepilot/core/logger"

// Logger re-exports the core interface so adapter packages only need
// one logger import.
type Logger = corelogger.Logger

// NopLogger discards everything. Constructors fall back to it when the
// caller passes a nil logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// New returns the zerolog-backed Logger for a component. APP_ENV=dev
// switches to console output and CP_LOG_LEVEL sets the severity floor.
func New(component string) Logger {
	return NewZerologLogger(component)
}
