package leaderboard

import (
	"time"

	"github.com/blackultras/flextrack/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL sets the snapshot freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLimit caps how many ranked rows a snapshot holds.
func WithLimit(limit int) Option {
	return func(c *Cache) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithClock replaces the wall clock for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}
