// Package charger implements the HTTP client for the home-energy
// simulator's local API.
package charger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evopti/chargepilot/auth"
	corecharger "github.com/evopti/chargepilot/core/charger"
	"github.com/evopti/chargepilot/core/model"
	"github.com/evopti/chargepilot/infra/logger"
)

// DefaultBaseURL is where the stock simulator listens.
const DefaultBaseURL = "http://127.0.0.1:5000"

// HTTPClient talks to the charger simulator over its local HTTP API.
type HTTPClient struct {
	base       string
	client     *http.Client
	log        logger.Logger
	authClient *auth.ClientCred
}

// Option adjusts the client at construction time.
type Option func(*HTTPClient)

// WithTimeout bounds every call independently of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.client.Timeout = d }
}

// WithAuth stamps a bearer token on every request.
func WithAuth(ac *auth.ClientCred) Option {
	return func(c *HTTPClient) { c.authClient = ac }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a client for the simulator at baseURL. An empty
// baseURL selects the stock simulator address.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		base:   strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{Timeout: 5 * time.Second},
		log:    logger.New("charger-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// infoRecord is the wire shape of GET /info.
type infoRecord struct {
	SimTimeHour     int     `json:"sim_time_hour"`
	SimTimeMin      int     `json:"sim_time_min"`
	BaseCurrentLoad float64 `json:"base_current_load"`
	BatteryKWh      float64 `json:"battery_capacity_kWh"`
}

// errorRecord is the simulator's error reply, delivered with any status.
type errorRecord struct {
	Error string `json:"error"`
}

// BaseLoad fetches the 24-hour household load profile.
func (c *HTTPClient) BaseLoad(ctx context.Context) (model.HourlyProfile, error) {
	return c.profile(ctx, "/baseload")
}

// PricePerHour fetches the 24-hour spot price profile.
func (c *HTTPClient) PricePerHour(ctx context.Context) (model.HourlyProfile, error) {
	return c.profile(ctx, "/priceperhour")
}

func (c *HTTPClient) profile(ctx context.Context, endpoint string) (model.HourlyProfile, error) {
	var raw []float64
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return model.HourlyProfile{}, err
	}
	p, err := model.NewHourlyProfile(raw)
	if err != nil {
		return model.HourlyProfile{}, &corecharger.APIError{
			Endpoint: endpoint,
			Status:   http.StatusOK,
			Message:  fmt.Sprintf("expected 24 hourly values, got %d", len(raw)),
		}
	}
	return p, nil
}

// Info fetches the simulator clock, household load and battery energy.
func (c *HTTPClient) Info(ctx context.Context) (model.Telemetry, error) {
	var rec infoRecord
	if err := c.getJSON(ctx, "/info", &rec); err != nil {
		return model.Telemetry{}, err
	}
	return model.Telemetry{
		SimHour:    rec.SimTimeHour,
		SimMinute:  rec.SimTimeMin,
		BaseLoadKW: rec.BaseCurrentLoad,
		BatteryKWh: rec.BatteryKWh,
	}, nil
}

// SetCharging switches the charger on or off.
func (c *HTTPClient) SetCharging(ctx context.Context, on bool) error {
	return c.postJSON(ctx, "/charge", map[string]string{"charging": onOff(on)})
}

// SetDischarging switches household discharge on or off.
func (c *HTTPClient) SetDischarging(ctx context.Context, on bool) error {
	return c.postJSON(ctx, "/discharge", map[string]string{"discharging": onOff(on)})
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	// The simulator reports failures as an error record with any status
	// code, including 200.
	var rec errorRecord
	if jerr := json.Unmarshal(body, &rec); jerr == nil && rec.Error != "" {
		return &corecharger.APIError{Endpoint: endpoint, Status: http.StatusOK, Message: rec.Error}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &corecharger.APIError{Endpoint: endpoint, Status: http.StatusOK, Message: "malformed response", Err: err}
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, endpoint, data)
	if err != nil {
		return err
	}
	var rec errorRecord
	if jerr := json.Unmarshal(body, &rec); jerr == nil && rec.Error != "" {
		return &corecharger.APIError{Endpoint: endpoint, Status: http.StatusOK, Message: rec.Error}
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authClient != nil {
		if err := c.authClient.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &corecharger.APIError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &corecharger.APIError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rec errorRecord
		if jerr := json.Unmarshal(body, &rec); jerr == nil && rec.Error != "" {
			return nil, &corecharger.APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: rec.Error}
		}
		return nil, &corecharger.APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
