package mqtt

import (
	"fmt"
	"testing"
	"time"

	coremon "github.com/evopti/chargepilot/core/monitoring"
)

type spyMonitor struct {
	captured []error
	lastTags map[string]string
}

func (s *spyMonitor) CaptureException(err error, tags map[string]string) {
	s.captured = append(s.captured, err)
	s.lastTags = tags
}

func (s *spyMonitor) Recover()            {}
func (s *spyMonitor) Flush(time.Duration) {}

func TestPublishExhaustedRetriesReachMonitor(t *testing.T) {
	failures := make([]error, 4)
	for i := range failures {
		failures[i] = fmt.Errorf("net fail %d", i)
	}
	mc := &mockClient{publishErrs: failures}
	withMockClient(t, mc)

	mon := &spyMonitor{}
	coremon.Init(mon)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", BackoffMS: 1})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.Publish("chargepilot/run/x/sample", []byte("x")); err == nil {
		t.Fatal("publish succeeded despite broker failures")
	}
	if len(mon.captured) != 1 {
		t.Fatalf("captured %d errors, want the final one only", len(mon.captured))
	}
	if mon.lastTags["module"] != "mqtt" || mon.lastTags["topic"] != "chargepilot/run/x/sample" {
		t.Fatalf("tags = %v", mon.lastTags)
	}
}
