package riot

import "errors"

// Sentinel kinds for upstream errors. Callers classify with errors.Is; none
// of these abort a sync pass on their own.
var (
	// ErrNotFound marks a 404 for an identity or match; not retried until the
	// next cycle.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrRateLimited marks a request abandoned after exhausting 429 retries.
	ErrRateLimited = errors.New("rate limit retries exhausted")

	// ErrUpstream marks transport failures and unexpected statuses.
	ErrUpstream = errors.New("upstream request failed")
)
