// Package leaderboard serves a ranked, denormalized snapshot of all tracked
// players, rebuilt at most once per freshness window.
package leaderboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackultras/flextrack/internal/domain/model"
	syncengine "github.com/blackultras/flextrack/internal/domain/sync"
	"github.com/blackultras/flextrack/pkg/logger"
	"github.com/blackultras/flextrack/pkg/metrics"
)

// defaultTTL is the freshness window when none is configured.
const defaultTTL = 300 * time.Second

// Row is one ranked leaderboard entry.
type Row struct {
	Rank           int      `json:"rank"`
	GameName       string   `json:"game_name"`
	TagLine        string   `json:"tag_line"`
	AverageScore   float64  `json:"average_score"`
	TotalScore     float64  `json:"total_score"`
	HighestScore   *float64 `json:"highest_score"`
	LowestScore    *float64 `json:"lowest_score"`
	MostPlayedRole string   `json:"most_played_role"`
	MatchCount     int      `json:"match_count"`
	LastUpdatedAt  string   `json:"last_updated"`
}

// Snapshot is an immutable ranked projection. It is replaced whole on each
// rebuild; readers never observe a partial one.
type Snapshot struct {
	Rows    []Row     `json:"rows"`
	BuiltAt time.Time `json:"built_at"`
}

// Syncer runs a full sync pass before the snapshot is rebuilt.
type Syncer interface {
	SyncAll(ctx context.Context) []syncengine.Result
}

// Reader loads the ranked player rows the snapshot is built from.
type Reader interface {
	ListPlayersByAverageScoreDesc(ctx context.Context, limit int) ([]model.Player, error)
}

// Cache is the TTL-gated recompute guard. Get is lock-free while the
// snapshot is fresh; the rebuild path is serialized by one mutex shared with
// Refresh, so concurrent stale readers and the background scheduler can
// never trigger duplicate sync passes.
type Cache struct {
	rebuildMu sync.Mutex
	snapshot  atomic.Pointer[Snapshot]

	syncer Syncer
	reader Reader
	limit  int
	ttl    time.Duration

	now    func() time.Time
	logger logger.Logger
}

// New creates a Cache. The first Get triggers the initial build.
func New(syncer Syncer, reader Reader, opts ...Option) *Cache {
	c := &Cache{
		syncer: syncer,
		reader: reader,
		limit:  100,
		ttl:    defaultTTL,
		now:    time.Now,
		logger: logger.Get().Named("leaderboard"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current snapshot, rebuilding it first when stale. A
// rebuild failure serves the previous snapshot; with no snapshot to fall
// back on it returns ErrUnavailable.
func (c *Cache) Get(ctx context.Context) (Snapshot, error) {
	if snap := c.snapshot.Load(); snap != nil && c.fresh(snap) {
		return *snap, nil
	}
	return c.rebuild(ctx, false)
}

// Refresh forces a rebuild through the same guard, ignoring freshness of the
// current snapshot. Used by the background scheduler.
func (c *Cache) Refresh(ctx context.Context) (Snapshot, error) {
	return c.rebuild(ctx, true)
}

func (c *Cache) fresh(snap *Snapshot) bool {
	return c.now().Sub(snap.BuiltAt) < c.ttl
}

func (c *Cache) rebuild(ctx context.Context, force bool) (Snapshot, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	// Another caller may have rebuilt while this one waited on the guard.
	if snap := c.snapshot.Load(); snap != nil && !force && c.fresh(snap) {
		return *snap, nil
	}

	start := c.now()
	c.syncer.SyncAll(ctx)

	players, err := c.reader.ListPlayersByAverageScoreDesc(ctx, c.limit)
	if err != nil {
		metrics.RecordLeaderboardRebuildError()
		if prev := c.snapshot.Load(); prev != nil {
			// Serve stale; BuiltAt is untouched so the next caller retries.
			metrics.RecordLeaderboardServedStale()
			c.logger.Warn(ctx, "rebuild failed, serving stale snapshot", logger.Error(err))
			return *prev, nil
		}
		c.logger.Error(ctx, "rebuild failed with no snapshot to fall back on", logger.Error(err))
		return Snapshot{}, ErrUnavailable
	}

	snap := &Snapshot{
		Rows:    make([]Row, 0, len(players)),
		BuiltAt: c.now(),
	}
	for i, p := range players {
		snap.Rows = append(snap.Rows, Row{
			Rank:           i + 1,
			GameName:       p.GameName,
			TagLine:        p.TagLine,
			AverageScore:   p.AverageScore,
			TotalScore:     p.TotalScore,
			HighestScore:   p.HighestScore,
			LowestScore:    p.LowestScore,
			MostPlayedRole: p.MostPlayedRole.String(),
			MatchCount:     p.MatchCount,
			LastUpdatedAt:  p.LastUpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.snapshot.Store(snap)

	metrics.RecordLeaderboardRebuild(c.now().Sub(start).Seconds())
	c.logger.Info(ctx, "snapshot rebuilt",
		logger.Int("rows", len(snap.Rows)),
		logger.Duration("elapsed", c.now().Sub(start)),
	)
	return *snap, nil
}
