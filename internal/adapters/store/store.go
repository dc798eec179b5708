// Package store implements the persistence collaborator over SQLite.
//
// A single SQLite file backs players, their retained matches and the FIFO
// queue, so a per-player sync pass can mutate all of them inside one
// transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackultras/flextrack/internal/domain/model"
	"github.com/blackultras/flextrack/internal/domain/role"
	_ "modernc.org/sqlite"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// querier abstracts *sql.DB and *sql.Tx so every query method works in and
// out of a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session carries the query methods shared by Store and Tx.
type session struct {
	q querier
}

// Store is the root handle opened against a SQLite file.
type Store struct {
	db *sql.DB
	session
}

// Tx exposes the same query surface inside a transaction.
type Tx struct {
	session
}

// Open opens the store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	// The _pragma form is applied by the driver on every pooled connection.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, session: session{q: db}}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error. The per-player sync pass uses it so match inserts, retention
// eviction and the aggregate update land together or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{session: session{q: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const playerColumns = `id, puuid, game_name, tag_line, last_synced_match_id,
	total_score, average_score, highest_score, lowest_score,
	most_played_role, match_count, last_updated_ms`

func scanPlayer(row interface{ Scan(...any) error }) (model.Player, error) {
	var (
		p        model.Player
		high     sql.NullFloat64
		low      sql.NullFloat64
		roleName string
		updated  int64
	)
	err := row.Scan(&p.ID, &p.PUUID, &p.GameName, &p.TagLine, &p.LastSyncedMatchID,
		&p.TotalScore, &p.AverageScore, &high, &low, &roleName, &p.MatchCount, &updated)
	if err != nil {
		return model.Player{}, err
	}
	if high.Valid {
		v := high.Float64
		p.HighestScore = &v
	}
	if low.Valid {
		v := low.Float64
		p.LowestScore = &v
	}
	p.MostPlayedRole = role.Parse(roleName)
	p.LastUpdatedAt = fromMillis(updated)
	return p, nil
}

// UpsertPlayer inserts a player identity if unseen and returns the stored row.
func (s session) UpsertPlayer(ctx context.Context, gameName, tagLine string) (model.Player, error) {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO players (game_name, tag_line) VALUES (?, ?)
		 ON CONFLICT (game_name, tag_line) DO NOTHING`,
		gameName, tagLine)
	if err != nil {
		return model.Player{}, fmt.Errorf("upsert player: %w", err)
	}
	return s.GetPlayer(ctx, gameName, tagLine)
}

// GetPlayer fetches a player by identity.
func (s session) GetPlayer(ctx context.Context, gameName, tagLine string) (model.Player, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE game_name = ? AND tag_line = ?`,
		gameName, tagLine)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return model.Player{}, ErrNotFound
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// GetPlayerByID fetches a player by row id.
func (s session) GetPlayerByID(ctx context.Context, id int64) (model.Player, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return model.Player{}, ErrNotFound
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("get player by id: %w", err)
	}
	return p, nil
}

// SetPlayerPUUID stores a resolved upstream identity.
func (s session) SetPlayerPUUID(ctx context.Context, id int64, puuid string) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE players SET puuid = ? WHERE id = ?`, puuid, id); err != nil {
		return fmt.Errorf("set puuid: %w", err)
	}
	return nil
}

// ListPlayers returns every tracked player in identity order.
func (s session) ListPlayers(ctx context.Context) ([]model.Player, error) {
	return s.listPlayers(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY game_name, tag_line`)
}

// ListPlayersByAverageScoreDesc returns players ranked for the leaderboard:
// average score descending, ties broken by identity so snapshots are stable.
func (s session) ListPlayersByAverageScoreDesc(ctx context.Context, limit int) ([]model.Player, error) {
	return s.listPlayers(ctx,
		`SELECT `+playerColumns+` FROM players
		 ORDER BY average_score DESC, game_name ASC, tag_line ASC LIMIT ?`, limit)
}

func (s session) listPlayers(ctx context.Context, query string, args ...any) ([]model.Player, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// UpdateAggregates writes a player's running aggregates and sync watermark.
func (s session) UpdateAggregates(ctx context.Context, p model.Player) error {
	var high, low sql.NullFloat64
	if p.HighestScore != nil {
		high = sql.NullFloat64{Float64: *p.HighestScore, Valid: true}
	}
	if p.LowestScore != nil {
		low = sql.NullFloat64{Float64: *p.LowestScore, Valid: true}
	}
	_, err := s.q.ExecContext(ctx,
		`UPDATE players SET last_synced_match_id = ?, total_score = ?, average_score = ?,
		 highest_score = ?, lowest_score = ?, most_played_role = ?, match_count = ?,
		 last_updated_ms = ? WHERE id = ?`,
		p.LastSyncedMatchID, p.TotalScore, p.AverageScore, high, low,
		p.MostPlayedRole.String(), p.MatchCount, toMillis(p.LastUpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update aggregates: %w", err)
	}
	return nil
}

// DeletePlayer removes a player together with its retained matches. The
// matches are deleted explicitly rather than through cascade so the call
// does not depend on the foreign_keys pragma being in effect.
func (s session) DeletePlayer(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM matches WHERE player_id = ?`, id); err != nil {
		return fmt.Errorf("delete player matches: %w", err)
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMatchIfAbsent inserts a match record unless the (player, match id)
// pair already exists. Returns whether a row was inserted.
func (s session) InsertMatchIfAbsent(ctx context.Context, rec model.MatchRecord) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO matches (player_id, match_id, score, role, kills, deaths, assists,
		 cs, vision_score, total_damage, game_ts_ms, duration_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (player_id, match_id) DO NOTHING`,
		rec.PlayerID, rec.MatchID, rec.Score, rec.Role.String(),
		rec.Kills, rec.Deaths, rec.Assists, rec.CS, rec.VisionScore, rec.TotalDamage,
		toMillis(rec.Timestamp), rec.DurationMinutes)
	if err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert match: %w", err)
	}
	return n > 0, nil
}

// ListMatches returns a player's retained matches, newest first.
func (s session) ListMatches(ctx context.Context, playerID int64) ([]model.MatchRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, player_id, match_id, score, role, kills, deaths, assists,
		 cs, vision_score, total_damage, game_ts_ms, duration_minutes
		 FROM matches WHERE player_id = ? ORDER BY game_ts_ms DESC, id DESC`,
		playerID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		var (
			rec      model.MatchRecord
			roleName string
			ts       int64
		)
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.MatchID, &rec.Score, &roleName,
			&rec.Kills, &rec.Deaths, &rec.Assists, &rec.CS, &rec.VisionScore,
			&rec.TotalDamage, &ts, &rec.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		rec.Role = role.Parse(roleName)
		rec.Timestamp = fromMillis(ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return records, nil
}

// DeleteMatches removes match records by row id.
func (s session) DeleteMatches(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM matches WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	return nil
}

// QueueList returns queued player names in join order.
func (s session) QueueList(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT player_name FROM queue ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return names, nil
}

// QueuePush appends a name to the queue. Returns whether it was added;
// a name already queued is not an error.
func (s session) QueuePush(ctx context.Context, name string, now time.Time) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO queue (player_name, joined_ms) VALUES (?, ?)
		 ON CONFLICT (player_name) DO NOTHING`,
		name, toMillis(now))
	if err != nil {
		return false, fmt.Errorf("queue push: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("queue push: %w", err)
	}
	return n > 0, nil
}

// QueueRemove deletes a name from the queue.
func (s session) QueueRemove(ctx context.Context, name string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM queue WHERE player_name = ?`, name)
	if err != nil {
		return fmt.Errorf("queue remove: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// QueuePop removes and returns the name at the head of the queue.
func (s session) QueuePop(ctx context.Context) (string, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, player_name FROM queue ORDER BY id ASC LIMIT 1`)
	var (
		id   int64
		name string
	)
	if err := row.Scan(&id, &name); err == sql.ErrNoRows {
		return "", ErrQueueEmpty
	} else if err != nil {
		return "", fmt.Errorf("queue pop: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM queue WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("queue pop: %w", err)
	}
	return name, nil
}
