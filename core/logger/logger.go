package logger

// Logger is the leveled logging surface the core packages write to.
// Adapters live under infra/logger so the control loop never imports a
// logging backend directly.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
