// Package app provides the core business service that wires the sync
// pipeline together and implements the dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blackultras/flextrack/internal/adapters/riot"
	"github.com/blackultras/flextrack/internal/adapters/store"
	"github.com/blackultras/flextrack/internal/domain/leaderboard"
	"github.com/blackultras/flextrack/internal/domain/model"
	"github.com/blackultras/flextrack/internal/domain/role"
	"github.com/blackultras/flextrack/internal/domain/scoring"
	syncengine "github.com/blackultras/flextrack/internal/domain/sync"
	"github.com/blackultras/flextrack/pkg/logger"
)

// txStoreAdapter narrows *store.Store to the engine's Store interface.
type txStoreAdapter struct {
	s *store.Store
}

func (a txStoreAdapter) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return a.s.ListPlayers(ctx)
}

func (a txStoreAdapter) SetPlayerPUUID(ctx context.Context, id int64, puuid string) error {
	return a.s.SetPlayerPUUID(ctx, id, puuid)
}

func (a txStoreAdapter) WithTx(ctx context.Context, fn func(tx syncengine.TxStore) error) error {
	return a.s.WithTx(ctx, func(tx *store.Tx) error {
		return fn(tx)
	})
}

// Service implements the API dependencies for the tracker.
type Service struct {
	mu sync.Mutex

	// Core components
	store  *store.Store
	gate   *riot.Gate
	client *riot.Client
	scorer *scoring.Engine
	engine *syncengine.Engine
	cache  *leaderboard.Cache

	// Configuration
	apiKey         string
	region         string
	queueID        int
	retention      int
	candidateCount int
	leaderboardTTL time.Duration
	syncInterval   time.Duration
	requestTimeout time.Duration
	maxRetries     int
	rateWindows    []riot.Window
	roster         []string // "name#tag" entries

	// State
	started bool
	stopCh  chan struct{}
	done    sync.WaitGroup

	// Logging
	logger logger.Logger
}

// New constructs a Service around an opened store.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:          st,
		region:         "europe",
		queueID:        440,
		retention:      10,
		candidateCount: 10,
		leaderboardTTL: 300 * time.Second,
		syncInterval:   120 * time.Second,
		requestTimeout: 10 * time.Second,
		maxRetries:     2,
		rateWindows: []riot.Window{
			{Limit: 20, Period: time.Second},
			{Limit: 100, Period: 120 * time.Second},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start wires all components, bootstraps the roster and launches the
// background sync scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.gate = riot.NewGate(s.rateWindows)
	s.client = riot.NewClient(s.apiKey, s.region, s.gate,
		riot.WithMaxRetries(s.maxRetries),
		riot.WithHTTPClient(httpClient(s.requestTimeout)),
	)
	s.scorer = scoring.New()
	s.engine = syncengine.New(s.client, txStoreAdapter{s: s.store}, s.scorer,
		syncengine.WithQueueID(s.queueID),
		syncengine.WithRetentionSize(s.retention),
		syncengine.WithCandidateCount(s.candidateCount),
	)
	s.cache = leaderboard.New(s.engine, s.store,
		leaderboard.WithTTL(s.leaderboardTTL),
	)

	if err := s.bootstrapRoster(ctx); err != nil {
		return err
	}

	// Fresh channel so a stopped service can be started again.
	s.stopCh = make(chan struct{})
	s.done.Add(1)
	go s.runScheduler(s.stopCh)

	s.started = true
	s.logger.Info(ctx, "tracker service started",
		logger.Int("roster", len(s.roster)),
		logger.Duration("sync_interval", s.syncInterval),
		logger.Duration("leaderboard_ttl", s.leaderboardTTL),
	)
	return nil
}

// Stop shuts down the background scheduler.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	close(s.stopCh)
	s.done.Wait()
	s.started = false
	s.logger.Info(context.Background(), "tracker service stopped")
}

// bootstrapRoster upserts configured players so the first pass tracks them.
// PUUIDs stay empty here; the sync engine resolves them lazily.
func (s *Service) bootstrapRoster(ctx context.Context) error {
	for _, entry := range s.roster {
		name, tag, ok := strings.Cut(entry, "#")
		if !ok {
			return fmt.Errorf("roster entry %q must be formatted as name#tag", entry)
		}
		if _, err := s.store.UpsertPlayer(ctx, name, tag); err != nil {
			return fmt.Errorf("bootstrap roster: %w", err)
		}
	}
	return nil
}

// runScheduler periodically refreshes the leaderboard, which runs a sync
// pass under the same guard the on-demand path uses.
func (s *Service) runScheduler(stop <-chan struct{}) {
	defer s.done.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx := context.Background()
			if _, err := s.cache.Refresh(ctx); err != nil {
				s.logger.Warn(ctx, "scheduled refresh failed", logger.Error(err))
			}
		}
	}
}

// Leaderboard returns the cached ranked snapshot, rebuilding it when stale.
func (s *Service) Leaderboard(ctx context.Context) (leaderboard.Snapshot, error) {
	return s.cache.Get(ctx)
}

// Players returns every tracked player with current aggregates.
func (s *Service) Players(ctx context.Context) ([]model.Player, error) {
	return s.store.ListPlayers(ctx)
}

// SearchPlayer performs a live lookup: resolve the account, fetch the most
// recent match, and score the subject's whole team, worst first.
func (s *Service) SearchPlayer(ctx context.Context, name, tag string) (model.SearchResult, error) {
	acct, err := s.client.ResolveAccount(ctx, name, tag)
	if err != nil {
		return model.SearchResult{}, err
	}

	ids, err := s.client.RecentMatchIDs(ctx, acct.PUUID, 1)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(ids) == 0 {
		return model.SearchResult{}, fmt.Errorf("%w: no recent matches", riot.ErrNotFound)
	}

	m, err := s.client.FetchMatch(ctx, ids[0])
	if err != nil {
		return model.SearchResult{}, err
	}

	team := m.Teammates(acct.PUUID)
	if len(team) == 0 {
		return model.SearchResult{}, fmt.Errorf("%w: player absent from own match", riot.ErrNotFound)
	}

	res := model.SearchResult{
		Player:  name + "#" + tag,
		MatchID: ids[0],
		Scores:  make([]model.TeamScore, 0, len(team)),
	}
	for _, p := range team {
		sc := s.scorer.Compute(scoring.Input{
			Kills:       p.Kills,
			Deaths:      p.Deaths,
			Assists:     p.Assists,
			CS:          p.CS(),
			VisionScore: p.VisionScore,
			TotalDamage: p.TotalDamageDealtToChampions,
			Role:        role.FromPosition(p.TeamPosition),
			Champion:    p.ChampionName,
		}, m.DurationMinutes())

		displayName := p.RiotIDGameName
		if displayName == "" {
			displayName = p.SummonerName
		}
		res.Scores = append(res.Scores, model.TeamScore{
			Name:     displayName,
			Champion: p.ChampionName,
			Role:     sc.Role.String(),
			Score:    sc.Score,
		})
	}

	sort.SliceStable(res.Scores, func(i, j int) bool {
		return res.Scores[i].Score < res.Scores[j].Score
	})
	res.PlayerToRemove = &res.Scores[0]
	return res, nil
}

// Queue returns queued player names in join order.
func (s *Service) Queue(ctx context.Context) ([]string, error) {
	return s.store.QueueList(ctx)
}

// JoinQueue appends a player name; returns false if already queued.
func (s *Service) JoinQueue(ctx context.Context, name string) (bool, error) {
	return s.store.QueuePush(ctx, name, time.Now())
}

// LeaveQueue removes a player name.
func (s *Service) LeaveQueue(ctx context.Context, name string) error {
	return s.store.QueueRemove(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         started,
		"roster_size":     len(s.roster),
		"retention_size":  s.retention,
		"queue_id":        s.queueID,
		"sync_interval":   s.syncInterval.String(),
		"leaderboard_ttl": s.leaderboardTTL.String(),
	}

	if players, err := s.store.ListPlayers(ctx); err == nil {
		stats["players_tracked"] = len(players)
	}
	if queued, err := s.store.QueueList(ctx); err == nil {
		stats["queue_length"] = len(queued)
	}
	return stats
}
