package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if FLEXTRACK_CONFIG is set
//  3. env (prefix FLEXTRACK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FLEXTRACK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FLEXTRACK_ADDR, FLEXTRACK_RIOT_API_KEY, ...
	// Map env keys like FLEXTRACK_QUEUE_ID -> queue_id (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("FLEXTRACK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "flextrack_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the sync pipeline cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RiotAPIKey == "":
		return fmt.Errorf("%w: riot_api_key must not be empty", ErrInvalidConfig)
	case c.RetentionSize < 1:
		return fmt.Errorf("%w: retention_size must be at least 1", ErrInvalidConfig)
	case c.CandidateCount < 1:
		return fmt.Errorf("%w: candidate_count must be at least 1", ErrInvalidConfig)
	case c.LeaderboardTTL <= 0:
		return fmt.Errorf("%w: leaderboard_ttl must be positive", ErrInvalidConfig)
	case c.SyncInterval <= 0:
		return fmt.Errorf("%w: sync_interval must be positive", ErrInvalidConfig)
	case c.RateShortLimit < 1 || c.RateLongLimit < 1:
		return fmt.Errorf("%w: rate window limits must be at least 1", ErrInvalidConfig)
	case c.RateShortPeriod <= 0 || c.RateLongPeriod <= 0:
		return fmt.Errorf("%w: rate window periods must be positive", ErrInvalidConfig)
	}
	for _, p := range c.Players {
		if !strings.Contains(p, "#") {
			return fmt.Errorf("%w: player %q must be formatted as name#tag", ErrInvalidConfig, p)
		}
	}
	return nil
}
