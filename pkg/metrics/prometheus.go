// Package metrics provides Prometheus metrics for the flextrack sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Upstream metrics - Riot API traffic and rate limiting
	riotRequests      *prometheus.CounterVec
	riotRetries       prometheus.Counter
	rateLimitWait     prometheus.Histogram
	rateLimitExceeded prometheus.Counter

	// Sync pipeline metrics
	matchesIngested     prometheus.Counter
	duplicatesSkipped   prometheus.Counter
	matchesEvicted      prometheus.Counter
	syncPassDuration    prometheus.Histogram
	syncFailures        prometheus.Counter
	syncPartialFailures prometheus.Counter
	playersTracked      prometheus.Gauge

	// Leaderboard metrics
	leaderboardRebuilds        prometheus.Counter
	leaderboardRebuildDuration prometheus.Histogram
	leaderboardRebuildErrors   prometheus.Counter
	leaderboardServedStale     prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "flextrack",
		subsystem:        "sync",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.riotRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "riot_requests_total",
			Help:      "Total number of Riot API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	m.riotRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "riot_retries_total",
		Help:      "Total number of retried Riot API requests after a 429 response",
	})

	m.rateLimitWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_wait_seconds",
		Help:      "Histogram of time spent blocked on the outbound rate gate",
		Buckets:   m.histogramBuckets,
	})

	m.rateLimitExceeded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_exceeded_total",
		Help:      "Total number of requests abandoned after exhausting retries",
	})

	m.matchesIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_ingested_total",
		Help:      "Total number of new match records ingested",
	})

	m.duplicatesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_duplicate_total",
		Help:      "Total number of match inserts rejected as already seen",
	})

	m.matchesEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_evicted_total",
		Help:      "Total number of match records evicted by the retention step",
	})

	m.syncPassDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pass_duration_seconds",
		Help:      "Histogram of full sync pass duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.syncFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_failures_total",
		Help:      "Total number of per-player sync failures (pass continued)",
	})

	m.syncPartialFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_partial_failures_total",
		Help:      "Total number of player syncs that committed some matches but left fetch failures behind",
	})

	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players_tracked",
		Help:      "Number of players currently tracked",
	})

	m.leaderboardRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "rebuilds_total",
		Help:      "Total number of leaderboard snapshot rebuilds",
	})

	m.leaderboardRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "rebuild_duration_seconds",
		Help:      "Histogram of leaderboard rebuild duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.leaderboardRebuildErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "rebuild_errors_total",
		Help:      "Total number of failed leaderboard rebuilds",
	})

	m.leaderboardServedStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "leaderboard",
		Name:      "served_stale_total",
		Help:      "Total number of reads served from a stale snapshot after a rebuild failure",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Package-level helpers recording on the global manager.

// RecordRiotRequest records a completed Riot API request.
func RecordRiotRequest(endpoint, status string) {
	globalManager.riotRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordRiotRetry records a retry triggered by a 429 response.
func RecordRiotRetry() {
	globalManager.riotRetries.Inc()
}

// RecordRateLimitWait records time spent blocked on the rate gate.
func RecordRateLimitWait(seconds float64) {
	globalManager.rateLimitWait.Observe(seconds)
}

// RecordRateLimitExceeded records a request abandoned after exhausting retries.
func RecordRateLimitExceeded() {
	globalManager.rateLimitExceeded.Inc()
}

// RecordMatchIngested records a newly ingested match record.
func RecordMatchIngested() {
	globalManager.matchesIngested.Inc()
}

// RecordDuplicateSkipped records a match insert rejected as already seen.
func RecordDuplicateSkipped() {
	globalManager.duplicatesSkipped.Inc()
}

// RecordMatchesEvicted records match records removed by the retention step.
func RecordMatchesEvicted(n int) {
	globalManager.matchesEvicted.Add(float64(n))
}

// RecordSyncPassDuration records the duration of a full sync pass.
func RecordSyncPassDuration(seconds float64) {
	globalManager.syncPassDuration.Observe(seconds)
}

// RecordSyncFailure records a per-player sync failure.
func RecordSyncFailure() {
	globalManager.syncFailures.Inc()
}

// RecordSyncPartialFailure records a player sync that committed but carried
// per-match fetch failures.
func RecordSyncPartialFailure() {
	globalManager.syncPartialFailures.Inc()
}

// UpdatePlayersTracked sets the number of tracked players.
func UpdatePlayersTracked(count int) {
	globalManager.playersTracked.Set(float64(count))
}

// RecordLeaderboardRebuild records a completed snapshot rebuild.
func RecordLeaderboardRebuild(seconds float64) {
	globalManager.leaderboardRebuilds.Inc()
	globalManager.leaderboardRebuildDuration.Observe(seconds)
}

// RecordLeaderboardRebuildError records a failed snapshot rebuild.
func RecordLeaderboardRebuildError() {
	globalManager.leaderboardRebuildErrors.Inc()
}

// RecordLeaderboardServedStale records a read served from a stale snapshot.
func RecordLeaderboardServedStale() {
	globalManager.leaderboardServedStale.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry serving /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
