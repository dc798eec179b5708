package app

import (
	"net/http"
	"time"

	"github.com/blackultras/flextrack/internal/adapters/riot"
	"github.com/blackultras/flextrack/internal/config"
	"github.com/blackultras/flextrack/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every service-relevant field of a loaded Config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		s.apiKey = cfg.RiotAPIKey
		s.region = cfg.RiotRegion
		s.queueID = cfg.QueueID
		s.retention = cfg.RetentionSize
		s.candidateCount = cfg.CandidateCount
		s.leaderboardTTL = cfg.LeaderboardTTL
		s.syncInterval = cfg.SyncInterval
		s.requestTimeout = cfg.RequestTimeout
		s.maxRetries = cfg.MaxRetries
		s.rateWindows = []riot.Window{
			{Limit: cfg.RateShortLimit, Period: cfg.RateShortPeriod},
			{Limit: cfg.RateLongLimit, Period: cfg.RateLongPeriod},
		}
		s.roster = cfg.Players
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRoster replaces the tracked roster ("name#tag" entries).
func WithRoster(roster []string) Option {
	return func(s *Service) {
		s.roster = roster
	}
}

// WithSyncInterval sets the background scheduler period.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncInterval = d
		}
	}
}

// httpClient builds the transport used for upstream calls. The timeout
// bounds hung upstream calls so they surface as upstream errors instead of
// stalling a pass.
func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
