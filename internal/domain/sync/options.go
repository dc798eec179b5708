package sync

import (
	"time"

	"github.com/blackultras/flextrack/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithQueueID restricts ingestion to one competitive queue.
func WithQueueID(id int) Option {
	return func(e *Engine) {
		if id > 0 {
			e.queueID = id
		}
	}
}

// WithRetentionSize sets K, the per-player retained match window.
func WithRetentionSize(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.retention = k
		}
	}
}

// WithCandidateCount sets N, the recent-id window fetched per sync.
func WithCandidateCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.candidates = n
		}
	}
}

// WithClock replaces the wall clock for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
