package config

import (
	"fmt"
	"net/url"

	"github.com/evopti/chargepilot/auth"
	"github.com/evopti/chargepilot/infra/charger"
)

// ChargerConfig points the client at the simulator HTTP API.
type ChargerConfig struct {
	BaseURL string    `json:"base_url"`
	Auth    auth.Conf `json:"auth"`
}

// SetDefaults applies the local simulator address.
func (c *ChargerConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = charger.DefaultBaseURL
	}
}

// Validate checks the base URL and the OAuth settings.
func (c ChargerConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme %q", u.Scheme)
	}
	if c.Auth.Enabled {
		if c.Auth.ClientID == "" || c.Auth.ClientSecret == "" || c.Auth.AuthURL == "" {
			return fmt.Errorf("auth requires client_id, client_secret and auth_url")
		}
	}
	return nil
}
