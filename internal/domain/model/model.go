// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/blackultras/flextrack/internal/domain/role"
)

// Player is a tracked account and its running aggregates. Aggregates are
// mutated only by the sync pass currently processing the player.
type Player struct {
	ID       int64
	PUUID    string // empty until the first successful identity lookup
	GameName string
	TagLine  string

	// LastSyncedMatchID is the incremental-sync watermark; empty before the
	// first completed pass.
	LastSyncedMatchID string

	TotalScore   float64
	AverageScore float64
	HighestScore *float64 // nil until the first match is scored
	LowestScore  *float64

	MostPlayedRole role.Role
	MatchCount     int
	LastUpdatedAt  time.Time
}

// RiotID renders the player identity as "name#tag".
func (p Player) RiotID() string {
	return p.GameName + "#" + p.TagLine
}

// MatchRecord is one scored match for one player. At most one record exists
// per (player, match id) pair.
type MatchRecord struct {
	ID       int64
	PlayerID int64
	MatchID  string

	Score float64
	Role  role.Role

	Kills       int
	Deaths      int
	Assists     int
	CS          int
	VisionScore int
	TotalDamage int

	Timestamp       time.Time
	DurationMinutes float64
}
