// Package monitoring routes unexpected errors to an exception tracker.
// The process installs one Monitor at startup; sinks, publishers and
// the control loop report through CaptureException so failures end up
// in one place.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything. It is the default until Init is
// called, so reporting is safe before setup and in tests.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu     sync.RWMutex
	active Monitor = NopMonitor{}
)

// Init installs the process-wide monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	active = m
	mu.Unlock()
}

// CaptureException records the error with optional tags. A nil error
// is dropped so callers can report unconditionally.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	mu.RLock()
	m := active
	mu.RUnlock()
	m.CaptureException(err, tags)
}
