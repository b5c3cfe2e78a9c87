package monitoring

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/evopti/chargepilot/config"
	coremon "github.com/evopti/chargepilot/core/monitoring"
)

const recoverFlushTimeout = 2 * time.Second

// NewSentryMonitor initializes Sentry from the configuration. An empty
// DSN yields the no-op monitor so runs work without a tracker. When the
// config names no environment, APP_ENV is used.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	env := cfg.Environment
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
		Debug:            cfg.Debug,
	}); err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Recover reports the panic and re-raises it so the process still
// crashes with the original value.
func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(recoverFlushTimeout)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
