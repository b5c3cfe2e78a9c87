// Package auth handles OAuth2 client-credentials authentication for
// simulators that sit behind a gateway. The stock simulator does not
// require it.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred hands out bearer tokens backed by a cached client
// credentials token source. The source refreshes expired tokens on its
// own; ForceRefresh discards it to fetch a fresh one early. Safe for
// concurrent use.
type ClientCred struct {
	conf clientcredentials.Config

	mu  sync.Mutex
	src oauth2.TokenSource
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// source must be called with the mutex held.
func (c *ClientCred) source() oauth2.TokenSource {
	if c.src == nil {
		c.src = c.conf.TokenSource(context.Background())
	}
	return c.src
}

// GetToken returns a valid access token, fetching or refreshing one
// when the cached token has expired.
func (c *ClientCred) GetToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, err := c.source().Token()
	if err != nil {
		return "", fmt.Errorf("fetching token: %w", err)
	}
	return tok.AccessToken, nil
}

// ForceRefresh drops the cached source and fetches a new token now.
func (c *ClientCred) ForceRefresh() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = c.conf.TokenSource(context.Background())
	tok, err := c.src.Token()
	if err != nil {
		return "", fmt.Errorf("fetching token: %w", err)
	}
	return tok.AccessToken, nil
}

// SetAuthHeader stamps a bearer token on the request, fetching one
// first if needed.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, err := c.source().Token()
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}
