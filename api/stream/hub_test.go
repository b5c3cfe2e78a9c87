package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evopti/chargepilot/core/model"
)

func TestNewEnvelope(t *testing.T) {
	sample := model.EnergySample{HourDecimal: 12.25, SoCPercent: 55, Charging: true}

	msg, err := NewEnvelope(TypeSample, sample)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeSample, env.Type)

	var parsed model.EnergySample
	require.NoError(t, json.Unmarshal(env.Payload, &parsed))
	assert.Equal(t, 12.25, parsed.HourDecimal)
	assert.Equal(t, 55.0, parsed.SoCPercent)
	assert.True(t, parsed.Charging)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeStatus, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeStatus, env.Type)
	assert.Nil(t, env.Payload)
}

func TestPlanPayload_ModeSerialized(t *testing.T) {
	p := model.Plan{RunID: "run-1", Mode: model.ModeByPrice, HoursNeeded: 3}

	raw, err := json.Marshal(PlanPayloadFrom(p))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "price", out["mode"])
	assert.Equal(t, "run-1", out["run_id"])
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(nil)

	c := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"sample"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastDropsWhenClientFull(t *testing.T) {
	hub := NewHub(nil)

	full := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(full)
	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))

	assert.Equal(t, []byte("one"), <-full.send)
	select {
	case msg := <-full.send:
		t.Fatalf("expected second message dropped, got %q", msg)
	default:
	}
}
