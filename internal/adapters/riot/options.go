package riot

import (
	"context"
	"net/http"
	"time"

	"github.com/blackultras/flextrack/pkg/logger"
)

// GateOption applies a configuration option to the Gate.
type GateOption func(*Gate)

// WithGateClock replaces the wall clock and sleep primitive, letting tests
// drive the windows deterministically.
func WithGateClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API host, e.g. to point at a test server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithMaxRetries bounds retries after 429 responses.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleep replaces the retry sleep primitive for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}
