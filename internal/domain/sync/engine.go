// Package sync discovers, scores and persists new matches for every tracked
// player, maintaining each player's running aggregates and sync watermark.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackultras/flextrack/internal/adapters/riot"
	"github.com/blackultras/flextrack/internal/domain/model"
	"github.com/blackultras/flextrack/internal/domain/role"
	"github.com/blackultras/flextrack/internal/domain/scoring"
	"github.com/blackultras/flextrack/pkg/logger"
	"github.com/blackultras/flextrack/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultQueueID        = 440 // Flex Ranked 5v5
	defaultRetentionSize  = 10
	defaultCandidateCount = 10
)

// Upstream is the rate-gated match-data API the engine reads from.
type Upstream interface {
	ResolveAccount(ctx context.Context, name, tag string) (riot.Account, error)
	RecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	FetchMatch(ctx context.Context, matchID string) (riot.Match, error)
}

// TxStore is the transactional slice of the persistence collaborator. All
// mutations for one player's pass go through a single TxStore.
type TxStore interface {
	InsertMatchIfAbsent(ctx context.Context, rec model.MatchRecord) (bool, error)
	ListMatches(ctx context.Context, playerID int64) ([]model.MatchRecord, error)
	DeleteMatches(ctx context.Context, ids []int64) error
	UpdateAggregates(ctx context.Context, p model.Player) error
}

// Store is the persistence surface the engine depends on.
type Store interface {
	ListPlayers(ctx context.Context) ([]model.Player, error)
	SetPlayerPUUID(ctx context.Context, id int64, puuid string) error
	WithTx(ctx context.Context, fn func(tx TxStore) error) error
}

// Scorer computes a match score from raw counters.
type Scorer interface {
	Compute(in scoring.Input, durationMinutes float64) scoring.Result
}

// Result reports the outcome of one player's sync.
type Result struct {
	Player     string
	NewMatches int
	Duplicates int
	Evicted    int
	Err        error
}

// Engine orchestrates per-player synchronization.
type Engine struct {
	upstream Upstream
	store    Store
	scorer   Scorer

	queueID    int
	retention  int
	candidates int

	now    func() time.Time
	logger logger.Logger
}

// New creates an Engine with default configuration.
func New(upstream Upstream, store Store, scorer Scorer, opts ...Option) *Engine {
	e := &Engine{
		upstream:   upstream,
		store:      store,
		scorer:     scorer,
		queueID:    defaultQueueID,
		retention:  defaultRetentionSize,
		candidates: defaultCandidateCount,
		now:        time.Now,
		logger:     logger.Get().Named("sync"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncAll runs one pass over every tracked player. A single player's failure
// is recorded in its Result and never aborts the pass.
func (e *Engine) SyncAll(ctx context.Context) []Result {
	start := e.now()
	passID := uuid.NewString()

	players, err := e.store.ListPlayers(ctx)
	if err != nil {
		e.logger.Error(ctx, "listing players failed, skipping pass",
			logger.String("pass", passID), logger.Error(err))
		return []Result{{Err: fmt.Errorf("list players: %w", err)}}
	}
	metrics.UpdatePlayersTracked(len(players))

	results := make([]Result, 0, len(players))
	for _, p := range players {
		res, err := e.SyncPlayer(ctx, p)
		switch {
		case err != nil:
			res.Player = p.RiotID()
			res.Err = err
			metrics.RecordSyncFailure()
			e.logger.Warn(ctx, "player sync failed, continuing pass",
				logger.String("pass", passID),
				logger.String("player", p.RiotID()),
				logger.Error(err),
			)
		case res.Err != nil:
			// Committed what it could; the leftover fetch failures must not
			// hide from the failure counters.
			metrics.RecordSyncPartialFailure()
			e.logger.Warn(ctx, "player partially synced",
				logger.String("pass", passID),
				logger.String("player", p.RiotID()),
				logger.Error(res.Err),
			)
		}
		results = append(results, res)
	}

	metrics.RecordSyncPassDuration(e.now().Sub(start).Seconds())
	e.logger.Info(ctx, "sync pass complete",
		logger.String("pass", passID),
		logger.Int("players", len(players)),
		logger.Duration("elapsed", e.now().Sub(start)),
	)
	return results
}

// SyncPlayer synchronizes a single player: resolve identity, detect new
// matches past the watermark, score and persist them, refresh aggregates.
func (e *Engine) SyncPlayer(ctx context.Context, p model.Player) (Result, error) {
	res := Result{Player: p.RiotID()}

	// Resolve identity lazily on the first pass that sees this player.
	if p.PUUID == "" {
		acct, err := e.upstream.ResolveAccount(ctx, p.GameName, p.TagLine)
		if err != nil {
			return res, fmt.Errorf("resolve %s: %w", p.RiotID(), err)
		}
		if err := e.store.SetPlayerPUUID(ctx, p.ID, acct.PUUID); err != nil {
			return res, err
		}
		p.PUUID = acct.PUUID
	}

	// Cheap watermark check before pulling the whole candidate window.
	head, err := e.upstream.RecentMatchIDs(ctx, p.PUUID, 1)
	if err != nil {
		return res, fmt.Errorf("head match id for %s: %w", p.RiotID(), err)
	}
	if len(head) == 0 || head[0] == p.LastSyncedMatchID {
		return res, nil
	}

	ids, err := e.upstream.RecentMatchIDs(ctx, p.PUUID, e.candidates)
	if err != nil {
		return res, fmt.Errorf("candidate ids for %s: %w", p.RiotID(), err)
	}

	candidates := candidatesAfterWatermark(ids, p.LastSyncedMatchID)
	if len(candidates) == 0 {
		return res, nil
	}

	records, watermark, fetchErrs := e.ingestCandidates(ctx, p, candidates)

	err = e.store.WithTx(ctx, func(tx TxStore) error {
		for _, rec := range records {
			inserted, err := tx.InsertMatchIfAbsent(ctx, rec)
			if err != nil {
				return err
			}
			if inserted {
				res.NewMatches++
				metrics.RecordMatchIngested()
			} else {
				// Already synced, e.g. reprocessed after a watermark gap.
				res.Duplicates++
				metrics.RecordDuplicateSkipped()
			}
		}

		retained, err := tx.ListMatches(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(retained) > e.retention {
			evict := retained[e.retention:]
			ids := make([]int64, len(evict))
			for i, rec := range evict {
				ids[i] = rec.ID
			}
			if err := tx.DeleteMatches(ctx, ids); err != nil {
				return err
			}
			res.Evicted = len(ids)
			metrics.RecordMatchesEvicted(len(ids))
			retained = retained[:e.retention]
		}

		updated := p
		applyAggregates(&updated, retained)
		if watermark != "" {
			updated.LastSyncedMatchID = watermark
		}
		updated.LastUpdatedAt = e.now()
		return tx.UpdateAggregates(ctx, updated)
	})
	if err != nil {
		return res, fmt.Errorf("persist %s: %w", p.RiotID(), err)
	}

	// Fetch failures did not block the committed matches; surface them so the
	// pass report shows the player was only partially synced.
	res.Err = fetchErrs
	return res, nil
}

// ingestCandidates fetches and scores candidate matches oldest-first and
// reports the newest id the watermark may safely advance to. The watermark
// stops advancing at the first fetch failure so the failed match is retried
// next cycle; matches beyond it are still ingested, and the idempotent insert
// absorbs the resulting duplicates.
func (e *Engine) ingestCandidates(ctx context.Context, p model.Player, candidates []string) ([]model.MatchRecord, string, error) {
	var (
		records   []model.MatchRecord
		watermark string
		errs      []error
		blocked   bool
	)

	for i := len(candidates) - 1; i >= 0; i-- {
		matchID := candidates[i]

		m, err := e.upstream.FetchMatch(ctx, matchID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", matchID, err))
			blocked = true
			continue
		}

		if !blocked {
			watermark = matchID
		}

		if m.Info.QueueID != e.queueID {
			// Wrong game mode: seen, not ingested.
			continue
		}
		part, ok := m.ParticipantByPUUID(p.PUUID)
		if !ok {
			e.logger.Warn(ctx, "player missing from own match",
				logger.String("player", p.RiotID()),
				logger.String("match", matchID),
			)
			continue
		}

		sc := e.scorer.Compute(scoring.Input{
			Kills:       part.Kills,
			Deaths:      part.Deaths,
			Assists:     part.Assists,
			CS:          part.CS(),
			VisionScore: part.VisionScore,
			TotalDamage: part.TotalDamageDealtToChampions,
			Role:        role.FromPosition(part.TeamPosition),
			Champion:    part.ChampionName,
		}, m.DurationMinutes())

		records = append(records, model.MatchRecord{
			PlayerID:        p.ID,
			MatchID:         matchID,
			Score:           sc.Score,
			Role:            sc.Role,
			Kills:           part.Kills,
			Deaths:          part.Deaths,
			Assists:         part.Assists,
			CS:              part.CS(),
			VisionScore:     part.VisionScore,
			TotalDamage:     part.TotalDamageDealtToChampions,
			Timestamp:       time.UnixMilli(m.Info.GameCreation).UTC(),
			DurationMinutes: m.DurationMinutes(),
		})
	}

	return records, watermark, errors.Join(errs...)
}

// candidatesAfterWatermark cuts the newest-first id window at the watermark.
// When the watermark is not in the window (it fell off the end, or this is
// the first pass) the whole window is a candidate set: reprocessing a few
// already-seen matches beats silently losing the gap, and the uniqueness
// invariant rejects the duplicates.
func candidatesAfterWatermark(ids []string, watermark string) []string {
	if watermark == "" {
		return ids
	}
	for i, id := range ids {
		if id == watermark {
			return ids[:i]
		}
	}
	return ids
}

// applyAggregates recomputes every running aggregate from the retained match
// window. It is a full recompute rather than an incremental delta, so a
// detected inconsistency heals on the next pass.
func applyAggregates(p *model.Player, retained []model.MatchRecord) {
	p.MatchCount = len(retained)
	p.TotalScore = 0
	p.AverageScore = 0
	p.HighestScore = nil
	p.LowestScore = nil

	if len(retained) == 0 {
		p.MostPlayedRole = role.Undefined
		return
	}

	for _, rec := range retained {
		p.TotalScore += rec.Score
		if p.HighestScore == nil || rec.Score > *p.HighestScore {
			v := rec.Score
			p.HighestScore = &v
		}
		if p.LowestScore == nil || rec.Score < *p.LowestScore {
			v := rec.Score
			p.LowestScore = &v
		}
	}
	p.AverageScore = p.TotalScore / float64(len(retained))
	p.MostPlayedRole = mostPlayedRole(retained)
}

// mostPlayedRole returns the mode of role over the retained window, ties
// broken by the enum's priority order.
func mostPlayedRole(retained []model.MatchRecord) role.Role {
	counts := make(map[role.Role]int)
	for _, rec := range retained {
		counts[rec.Role]++
	}

	best := role.Undefined
	bestCount := counts[role.Undefined]
	for _, r := range role.All {
		if counts[r] > bestCount || (counts[r] == bestCount && counts[r] > 0 && best == role.Undefined) {
			best = r
			bestCount = counts[r]
		}
	}
	return best
}
