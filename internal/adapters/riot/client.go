// Package riot is the upstream adapter: a rate-gated, retrying HTTP client
// for the Riot account-v1 and match-v5 endpoints.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blackultras/flextrack/pkg/logger"
	"github.com/blackultras/flextrack/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultMaxRetries     = 2
	defaultRequestTimeout = 10 * time.Second
	defaultRetryAfter     = 1 * time.Second // used when a 429 omits Retry-After
)

// Client talks to the Riot API. Every request passes through the shared Gate
// before it leaves the process.
type Client struct {
	httpClient *http.Client
	gate       *Gate
	baseURL    string
	apiKey     string
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	logger     logger.Logger
}

// NewClient creates a Client for a routing region ("europe", "americas", ...).
func NewClient(apiKey, region string, gate *Gate, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		gate:       gate,
		baseURL:    fmt.Sprintf("https://%s.api.riotgames.com", region),
		apiKey:     apiKey,
		maxRetries: defaultMaxRetries,
		sleep:      sleepContext,
		logger:     logger.Get().Named("riot"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveAccount looks up an account by riot id (name + tagline).
func (c *Client) ResolveAccount(ctx context.Context, name, tag string) (Account, error) {
	var acct Account
	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(name), url.PathEscape(tag))
	if err := c.getJSON(ctx, "account", path, nil, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// RecentMatchIDs fetches the most recent match ids for a PUUID, newest first.
func (c *Client) RecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	var ids []string
	path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids", url.PathEscape(puuid))
	q := url.Values{"start": {"0"}, "count": {strconv.Itoa(count)}}
	if err := c.getJSON(ctx, "match_ids", path, q, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchMatch fetches a full match body.
func (c *Client) FetchMatch(ctx context.Context, matchID string) (Match, error) {
	var m Match
	path := "/lol/match/v5/matches/" + url.PathEscape(matchID)
	if err := c.getJSON(ctx, "match", path, nil, &m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// getJSON performs one gated GET with bounded 429 retries. A 429 response
// suspends the caller for the server-provided Retry-After; any other non-2xx
// status fails immediately without retry.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		req.Header.Set("X-Riot-Token", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordRiotRequest(endpoint, "transport_error")
			return fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		metrics.RecordRiotRequest(endpoint, strconv.Itoa(resp.StatusCode))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			if attempt >= c.maxRetries {
				metrics.RecordRateLimitExceeded()
				return fmt.Errorf("%w: %s after %d attempts", ErrRateLimited, endpoint, attempt+1)
			}
			c.logger.Warn(ctx, "rate limited by upstream, backing off",
				logger.String("endpoint", endpoint),
				logger.Duration("retry_after", retryAfter),
				logger.Int("attempt", attempt+1),
			)
			metrics.RecordRiotRetry()
			if err := c.sleep(ctx, retryAfter); err != nil {
				return fmt.Errorf("%w: %w", ErrUpstream, err)
			}
			continue

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return fmt.Errorf("%w: %s", ErrNotFound, path)

		case resp.StatusCode < 200 || resp.StatusCode > 299:
			resp.Body.Close()
			return fmt.Errorf("%w: %s returned %d", ErrUpstream, endpoint, resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode %s: %w", ErrUpstream, endpoint, err)
		}
		return nil
	}
}

// parseRetryAfter reads the Retry-After header in seconds.
func parseRetryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
