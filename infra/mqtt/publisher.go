package mqtt

import (
	"sync"

	coremqtt "github.com/evopti/chargepilot/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockPublisher records published messages for tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][][]byte
	Err      error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

// Publish records the payload under its topic, or fails when configured to.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.Messages[topic] = append(m.Messages[topic], cp)
	return nil
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}

// Topics returns the topics that received at least one message.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for t := range m.Messages {
		out = append(out, t)
	}
	return out
}

// Payloads returns the messages recorded for a topic.
func (m *MockPublisher) Payloads(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Messages[topic]
}
