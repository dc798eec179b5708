// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RiotAPIKey authenticates outbound Riot API calls.
	RiotAPIKey string `koanf:"riot_api_key"`

	// RiotRegion is the routing region for account and match endpoints, e.g. "europe".
	RiotRegion string `koanf:"riot_region"`

	// QueueID filters ingested matches to one competitive queue (440 = Flex Ranked 5v5).
	QueueID int `koanf:"queue_id"`

	// RetentionSize bounds how many recent matches are kept per player (K).
	RetentionSize int `koanf:"retention_size"`

	// CandidateCount bounds how many recent match ids are fetched per sync (N).
	CandidateCount int `koanf:"candidate_count"`

	// LeaderboardTTL is the freshness window of the cached leaderboard snapshot.
	LeaderboardTTL time.Duration `koanf:"leaderboard_ttl"`

	// SyncInterval is the period of the background sync scheduler.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// RequestTimeout bounds each outbound HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxRetries bounds 429 retries per outbound call.
	MaxRetries int `koanf:"max_retries"`

	// RateShortLimit and RateShortPeriod configure the short rate window.
	RateShortLimit  int           `koanf:"rate_short_limit"`
	RateShortPeriod time.Duration `koanf:"rate_short_period"`

	// RateLongLimit and RateLongPeriod configure the long rate window.
	RateLongLimit  int           `koanf:"rate_long_limit"`
	RateLongPeriod time.Duration `koanf:"rate_long_period"`

	// DBPath is the SQLite database file path.
	DBPath string `koanf:"db_path"`

	// Players is the tracked roster, entries formatted as "name#tag".
	Players []string `koanf:"players"`
}

// New creates a Config populated with defaults. The rate window defaults
// mirror the Riot development key limits (20/1s and 100/120s).
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		RiotRegion:      "europe",
		QueueID:         440,
		RetentionSize:   10,
		CandidateCount:  10,
		LeaderboardTTL:  300 * time.Second,
		SyncInterval:    120 * time.Second,
		RequestTimeout:  10 * time.Second,
		MaxRetries:      2,
		RateShortLimit:  20,
		RateShortPeriod: time.Second,
		RateLongLimit:   100,
		RateLongPeriod:  120 * time.Second,
		DBPath:          "flextrack.db",
	}
}
