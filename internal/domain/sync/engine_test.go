package sync_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/blackultras/flextrack/internal/adapters/riot"
	"github.com/blackultras/flextrack/internal/domain/model"
	"github.com/blackultras/flextrack/internal/domain/role"
	"github.com/blackultras/flextrack/internal/domain/scoring"
	syncengine "github.com/blackultras/flextrack/internal/domain/sync"
	. "github.com/smartystreets/goconvey/convey"
)

// stubScorer makes scores predictable: the score is the kill count.
type stubScorer struct{}

func (stubScorer) Compute(in scoring.Input, _ float64) scoring.Result {
	return scoring.Result{Score: float64(in.Kills), Role: in.Role}
}

// fakeUpstream serves canned ids and match bodies, counting calls.
type fakeUpstream struct {
	account    riot.Account
	resolveErr error
	ids        []string // newest first
	idsErr     error
	matches    map[string]riot.Match
	fetchErrs  map[string]error

	resolveCalls int
	headCalls    int
	windowCalls  int
	fetchCalls   int
}

func (u *fakeUpstream) ResolveAccount(_ context.Context, _, _ string) (riot.Account, error) {
	u.resolveCalls++
	if u.resolveErr != nil {
		return riot.Account{}, u.resolveErr
	}
	return u.account, nil
}

func (u *fakeUpstream) RecentMatchIDs(_ context.Context, _ string, count int) ([]string, error) {
	if count == 1 {
		u.headCalls++
	} else {
		u.windowCalls++
	}
	if u.idsErr != nil {
		return nil, u.idsErr
	}
	if count > len(u.ids) {
		count = len(u.ids)
	}
	return append([]string(nil), u.ids[:count]...), nil
}

func (u *fakeUpstream) FetchMatch(_ context.Context, matchID string) (riot.Match, error) {
	u.fetchCalls++
	if err := u.fetchErrs[matchID]; err != nil {
		return riot.Match{}, err
	}
	m, ok := u.matches[matchID]
	if !ok {
		return riot.Match{}, riot.ErrNotFound
	}
	return m, nil
}

// fakeStore keeps everything in memory and records the final aggregate write.
type fakeStore struct {
	players []model.Player
	puuids  map[int64]string
	matches map[int64][]model.MatchRecord
	updated map[int64]model.Player
	nextID  int64
}

func newFakeStore(players ...model.Player) *fakeStore {
	return &fakeStore{
		players: players,
		puuids:  make(map[int64]string),
		matches: make(map[int64][]model.MatchRecord),
		updated: make(map[int64]model.Player),
	}
}

func (s *fakeStore) ListPlayers(_ context.Context) ([]model.Player, error) {
	return append([]model.Player(nil), s.players...), nil
}

func (s *fakeStore) SetPlayerPUUID(_ context.Context, id int64, puuid string) error {
	s.puuids[id] = puuid
	return nil
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx syncengine.TxStore) error) error {
	return fn(s)
}

func (s *fakeStore) InsertMatchIfAbsent(_ context.Context, rec model.MatchRecord) (bool, error) {
	for _, existing := range s.matches[rec.PlayerID] {
		if existing.MatchID == rec.MatchID {
			return false, nil
		}
	}
	s.nextID++
	rec.ID = s.nextID
	s.matches[rec.PlayerID] = append(s.matches[rec.PlayerID], rec)
	return true, nil
}

func (s *fakeStore) ListMatches(_ context.Context, playerID int64) ([]model.MatchRecord, error) {
	records := append([]model.MatchRecord(nil), s.matches[playerID]...)
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (s *fakeStore) DeleteMatches(_ context.Context, ids []int64) error {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for playerID, records := range s.matches {
		kept := records[:0]
		for _, rec := range records {
			if !drop[rec.ID] {
				kept = append(kept, rec)
			}
		}
		s.matches[playerID] = kept
	}
	return nil
}

func (s *fakeStore) UpdateAggregates(_ context.Context, p model.Player) error {
	s.updated[p.ID] = p
	return nil
}

// flexMatch builds a one-participant match body for the given player.
func flexMatch(puuid string, queueID int, creationMS int64, kills int, position string) riot.Match {
	return riot.Match{
		Info: riot.MatchInfo{
			QueueID:      queueID,
			GameCreation: creationMS,
			GameDuration: 1800,
			Participants: []riot.Participant{{
				PUUID:        puuid,
				Kills:        kills,
				TeamPosition: position,
			}},
		},
	}
}

func trackedPlayer(id int64, puuid, watermark string) model.Player {
	return model.Player{
		ID:                id,
		PUUID:             puuid,
		GameName:          "Player",
		TagLine:           "EUW",
		LastSyncedMatchID: watermark,
	}
}

func TestEngine_SyncPlayer(t *testing.T) {
	Convey("Given a tracked player with a watermark inside the window", t, func() {
		up := &fakeUpstream{
			ids: []string{"m9", "m8", "m7", "m6", "m5", "m4"},
			matches: map[string]riot.Match{
				"m6": flexMatch("puuid-1", 440, 6000, 6, "MIDDLE"),
				"m7": flexMatch("puuid-1", 440, 7000, 7, "MIDDLE"),
				"m8": flexMatch("puuid-1", 440, 8000, 8, "TOP"),
				"m9": flexMatch("puuid-1", 440, 9000, 9, "MIDDLE"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", "m5"))

			Convey("Then only matches past the watermark should be ingested", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 4)
				So(res.Duplicates, ShouldEqual, 0)
				So(up.fetchCalls, ShouldEqual, 4)
			})

			Convey("Then the watermark should advance to the newest id", func() {
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m9")
			})

			Convey("Then aggregates should cover the retained window", func() {
				p := st.updated[1]
				So(p.MatchCount, ShouldEqual, 4)
				So(p.TotalScore, ShouldEqual, 30)
				So(p.AverageScore, ShouldEqual, 7.5)
				So(*p.HighestScore, ShouldEqual, 9)
				So(*p.LowestScore, ShouldEqual, 6)
				So(p.MostPlayedRole, ShouldEqual, role.Mid)
			})

			Convey("And a second sync of the same state should be a no-op", func() {
				res2, err := engine.SyncPlayer(context.Background(), st.updated[1])
				So(err, ShouldBeNil)
				So(res2.NewMatches, ShouldEqual, 0)
				So(up.windowCalls, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a player whose watermark is already the head", t, func() {
		up := &fakeUpstream{ids: []string{"m9", "m8"}}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", "m9"))

			Convey("Then the pass should short-circuit after the head probe", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 0)
				So(up.headCalls, ShouldEqual, 1)
				So(up.windowCalls, ShouldEqual, 0)
				So(up.fetchCalls, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a player without a resolved PUUID", t, func() {
		up := &fakeUpstream{
			account: riot.Account{PUUID: "fresh-puuid"},
			ids:     []string{"m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("fresh-puuid", 440, 1000, 3, "UTILITY"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "", ""))

			Convey("Then the identity should be resolved once and persisted", func() {
				So(err, ShouldBeNil)
				So(up.resolveCalls, ShouldEqual, 1)
				So(st.puuids[1], ShouldEqual, "fresh-puuid")
				So(res.NewMatches, ShouldEqual, 1)
			})
		})

		Convey("When the resolve fails", func() {
			up.resolveErr = riot.ErrNotFound
			_, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "", ""))

			Convey("Then the sync should fail without touching the store", func() {
				So(err, ShouldWrap, riot.ErrNotFound)
				So(st.updated, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a window containing other game modes", t, func() {
		up := &fakeUpstream{
			ids: []string{"flex2", "aram", "flex1"},
			matches: map[string]riot.Match{
				"flex1": flexMatch("puuid-1", 440, 1000, 4, "TOP"),
				"aram":  flexMatch("puuid-1", 450, 2000, 20, ""),
				"flex2": flexMatch("puuid-1", 440, 3000, 5, "TOP"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the wrong mode should be skipped but still advance the watermark", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 2)
				So(st.matches[1], ShouldHaveLength, 2)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "flex2")
			})
		})
	})

	Convey("Given a fetch failure in the middle of the window", t, func() {
		up := &fakeUpstream{
			ids: []string{"m3", "m2", "m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 1, "TOP"),
				"m3": flexMatch("puuid-1", 440, 3000, 3, "TOP"),
			},
			fetchErrs: map[string]error{"m2": riot.ErrUpstream},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the matches around the failure should still land", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 2)
				So(res.Err, ShouldWrap, riot.ErrUpstream)
			})

			Convey("Then the watermark should freeze before the failed match", func() {
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m1")
			})

			Convey("And the next pass should retry from the frozen watermark", func() {
				up.fetchErrs = nil
				up.matches["m2"] = flexMatch("puuid-1", 440, 2000, 2, "TOP")

				res2, err := engine.SyncPlayer(context.Background(), st.updated[1])
				So(err, ShouldBeNil)
				So(res2.NewMatches, ShouldEqual, 1)
				So(res2.Duplicates, ShouldEqual, 1)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m3")
				So(st.matches[1], ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a watermark that fell off the window", t, func() {
		up := &fakeUpstream{
			ids: []string{"m2", "m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 1, "TOP"),
				"m2": flexMatch("puuid-1", 440, 2000, 2, "TOP"),
			},
		}
		st := newFakeStore()
		// m1 was already synced on an earlier pass.
		_, err := st.InsertMatchIfAbsent(context.Background(), model.MatchRecord{PlayerID: 1, MatchID: "m1"})
		So(err, ShouldBeNil)

		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing with an ancient watermark", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", "ancient"))

			Convey("Then the whole window should be reprocessed and duplicates absorbed", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 1)
				So(res.Duplicates, ShouldEqual, 1)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m2")
			})
		})
	})

	Convey("Given more new matches than the retention size", t, func() {
		up := &fakeUpstream{
			ids: []string{"m5", "m4", "m3", "m2", "m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 1, "TOP"),
				"m2": flexMatch("puuid-1", 440, 2000, 2, "TOP"),
				"m3": flexMatch("puuid-1", 440, 3000, 3, "TOP"),
				"m4": flexMatch("puuid-1", 440, 4000, 4, "TOP"),
				"m5": flexMatch("puuid-1", 440, 5000, 5, "TOP"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{},
			syncengine.WithRetentionSize(3),
		)

		Convey("When syncing", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the oldest overflow should be evicted", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 5)
				So(res.Evicted, ShouldEqual, 2)
				So(st.matches[1], ShouldHaveLength, 3)
			})

			Convey("Then aggregates should only reflect the retained window", func() {
				p := st.updated[1]
				So(p.MatchCount, ShouldEqual, 3)
				So(p.TotalScore, ShouldEqual, 12) // 3 + 4 + 5
				So(*p.LowestScore, ShouldEqual, 3)
			})
		})
	})
}

func TestEngine_SyncAll(t *testing.T) {
	Convey("Given one healthy player and one broken player", t, func() {
		up := &fakeUpstream{
			ids: []string{"m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-good", 440, 1000, 7, "BOTTOM"),
			},
		}
		good := trackedPlayer(1, "puuid-good", "")
		bad := trackedPlayer(2, "", "")
		bad.GameName = "Broken"
		up.resolveErr = riot.ErrNotFound

		st := newFakeStore(bad, good)
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When running a full pass", func() {
			results := engine.SyncAll(context.Background())

			Convey("Then every player should be reported", func() {
				So(results, ShouldHaveLength, 2)
			})

			Convey("Then the broken player should carry its error", func() {
				So(results[0].Player, ShouldEqual, "Broken#EUW")
				So(results[0].Err, ShouldWrap, riot.ErrNotFound)
			})

			Convey("Then the healthy player should still have synced", func() {
				So(results[1].Err, ShouldBeNil)
				So(results[1].NewMatches, ShouldEqual, 1)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m1")
			})
		})
	})
}

func TestEngine_SyncAllPartialFailure(t *testing.T) {
	Convey("Given a player whose pass commits some matches around a fetch failure", t, func() {
		up := &fakeUpstream{
			ids: []string{"m2", "m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 1, "TOP"),
			},
			fetchErrs: map[string]error{"m2": riot.ErrUpstream},
		}
		st := newFakeStore(trackedPlayer(1, "puuid-1", ""))
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When running a full pass", func() {
			results := engine.SyncAll(context.Background())

			Convey("Then the pass should finish and keep the committed matches", func() {
				So(results, ShouldHaveLength, 1)
				So(results[0].NewMatches, ShouldEqual, 1)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m1")
			})

			Convey("Then the leftover fetch failure should stay visible in the result", func() {
				So(results[0].Err, ShouldWrap, riot.ErrUpstream)
			})
		})
	})
}

func TestEngine_RoleTieBreak(t *testing.T) {
	Convey("Given an even split between two roles", t, func() {
		up := &fakeUpstream{
			ids: []string{"m4", "m3", "m2", "m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 1, "JUNGLE"),
				"m2": flexMatch("puuid-1", 440, 2000, 2, "TOP"),
				"m3": flexMatch("puuid-1", 440, 3000, 3, "JUNGLE"),
				"m4": flexMatch("puuid-1", 440, 4000, 4, "TOP"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			_, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the higher-priority role should win the tie", func() {
				So(err, ShouldBeNil)
				So(st.updated[1].MostPlayedRole, ShouldEqual, role.Top)
			})
		})
	})

	Convey("Given matches with no positional data at all", t, func() {
		up := &fakeUpstream{
			ids: []string{"m1"},
			matches: map[string]riot.Match{
				"m1": flexMatch("puuid-1", 440, 1000, 2, ""),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			_, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the most played role should stay undefined", func() {
				So(err, ShouldBeNil)
				So(st.updated[1].MostPlayedRole, ShouldEqual, role.Undefined)
			})
		})
	})
}

func TestEngine_CandidateWindow(t *testing.T) {
	Convey("Given a candidate count smaller than the history", t, func() {
		up := &fakeUpstream{
			ids: []string{"m5", "m4", "m3"},
			matches: map[string]riot.Match{
				"m3": flexMatch("puuid-1", 440, 3000, 3, "TOP"),
				"m4": flexMatch("puuid-1", 440, 4000, 4, "TOP"),
				"m5": flexMatch("puuid-1", 440, 5000, 5, "TOP"),
			},
		}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{},
			syncengine.WithCandidateCount(2),
		)

		Convey("When syncing from scratch", func() {
			res, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then only the requested window should be fetched", func() {
				So(err, ShouldBeNil)
				So(res.NewMatches, ShouldEqual, 2)
				So(up.fetchCalls, ShouldEqual, 2)
				So(st.updated[1].LastSyncedMatchID, ShouldEqual, "m5")
			})
		})
	})

	Convey("Given a failing candidate listing", t, func() {
		errBoom := errors.New("listing down")
		up := &fakeUpstream{idsErr: errBoom}
		st := newFakeStore()
		engine := syncengine.New(up, st, stubScorer{})

		Convey("When syncing", func() {
			_, err := engine.SyncPlayer(context.Background(), trackedPlayer(1, "puuid-1", ""))

			Convey("Then the failure should surface without a store write", func() {
				So(err, ShouldWrap, errBoom)
				So(st.updated, ShouldBeEmpty)
			})
		})
	})
}
