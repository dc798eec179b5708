package riot_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blackultras/flextrack/internal/adapters/riot"
	. "github.com/smartystreets/goconvey/convey"
)

func testGate() *riot.Gate {
	return riot.NewGate([]riot.Window{{Limit: 1000, Period: time.Second}})
}

func noSleep(recorded *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestClient_ResolveAccount(t *testing.T) {
	Convey("Given an upstream that knows the account", t, func() {
		var gotPath, gotToken string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotToken = r.Header.Get("X-Riot-Token")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"puuid":    "puuid-123",
				"gameName": "Faker",
				"tagLine":  "KR1",
			})
		}))
		defer srv.Close()

		client := riot.NewClient("secret-key", "europe", testGate(),
			riot.WithBaseURL(srv.URL),
		)

		Convey("When resolving by riot id", func() {
			acct, err := client.ResolveAccount(context.Background(), "Faker", "KR1")

			Convey("Then the account should come back", func() {
				So(err, ShouldBeNil)
				So(acct.PUUID, ShouldEqual, "puuid-123")
				So(acct.GameName, ShouldEqual, "Faker")
				So(acct.TagLine, ShouldEqual, "KR1")
			})

			Convey("And the request should carry the path and API key", func() {
				So(gotPath, ShouldEqual, "/riot/account/v1/accounts/by-riot-id/Faker/KR1")
				So(gotToken, ShouldEqual, "secret-key")
			})
		})
	})

	Convey("Given an upstream that does not know the account", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		client := riot.NewClient("k", "europe", testGate(), riot.WithBaseURL(srv.URL))

		Convey("When resolving an unknown riot id", func() {
			_, err := client.ResolveAccount(context.Background(), "Nobody", "EUW")

			Convey("Then it should map to the not-found sentinel", func() {
				So(err, ShouldWrap, riot.ErrNotFound)
			})
		})
	})
}

func TestClient_RecentMatchIDs(t *testing.T) {
	Convey("Given an upstream with match history", t, func() {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			_ = json.NewEncoder(w).Encode([]string{"EUW1_3", "EUW1_2", "EUW1_1"})
		}))
		defer srv.Close()

		client := riot.NewClient("k", "europe", testGate(), riot.WithBaseURL(srv.URL))

		Convey("When fetching recent match ids", func() {
			ids, err := client.RecentMatchIDs(context.Background(), "puuid-123", 3)

			Convey("Then ids should come back newest first", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"EUW1_3", "EUW1_2", "EUW1_1"})
			})

			Convey("And the count should be forwarded", func() {
				So(gotQuery, ShouldContainSubstring, "count=3")
				So(gotQuery, ShouldContainSubstring, "start=0")
			})
		})
	})
}

func TestClient_RateLimitRetry(t *testing.T) {
	Convey("Given an upstream that throttles the first attempts", t, func() {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) <= 2 {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"puuid": "p"})
		}))
		defer srv.Close()

		var sleeps []time.Duration
		client := riot.NewClient("k", "europe", testGate(),
			riot.WithBaseURL(srv.URL),
			riot.WithMaxRetries(2),
			riot.WithSleep(noSleep(&sleeps)),
		)

		Convey("When the call succeeds before retries run out", func() {
			acct, err := client.ResolveAccount(context.Background(), "a", "b")

			Convey("Then it should eventually succeed", func() {
				So(err, ShouldBeNil)
				So(acct.PUUID, ShouldEqual, "p")
				So(attempts.Load(), ShouldEqual, 3)
			})

			Convey("And each backoff should honor Retry-After", func() {
				So(sleeps, ShouldResemble, []time.Duration{3 * time.Second, 3 * time.Second})
			})
		})
	})

	Convey("Given an upstream that throttles forever", t, func() {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		var sleeps []time.Duration
		client := riot.NewClient("k", "europe", testGate(),
			riot.WithBaseURL(srv.URL),
			riot.WithMaxRetries(2),
			riot.WithSleep(noSleep(&sleeps)),
		)

		Convey("When retries are exhausted", func() {
			_, err := client.ResolveAccount(context.Background(), "a", "b")

			Convey("Then it should fail with the rate-limited sentinel", func() {
				So(err, ShouldWrap, riot.ErrRateLimited)
				So(attempts.Load(), ShouldEqual, 3)
			})

			Convey("And the missing Retry-After should fall back to one second", func() {
				So(sleeps, ShouldResemble, []time.Duration{time.Second, time.Second})
			})
		})
	})
}

func TestClient_UpstreamErrors(t *testing.T) {
	Convey("Given an upstream returning a server error", t, func() {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := riot.NewClient("k", "europe", testGate(), riot.WithBaseURL(srv.URL))

		Convey("When fetching a match", func() {
			_, err := client.FetchMatch(context.Background(), "EUW1_1")

			Convey("Then it should fail immediately without retrying", func() {
				So(err, ShouldWrap, riot.ErrUpstream)
				So(attempts.Load(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an upstream returning malformed JSON", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		client := riot.NewClient("k", "europe", testGate(), riot.WithBaseURL(srv.URL))

		Convey("When decoding fails", func() {
			_, err := client.FetchMatch(context.Background(), "EUW1_1")

			Convey("Then the error should be an upstream error", func() {
				So(err, ShouldWrap, riot.ErrUpstream)
			})
		})
	})
}

func TestMatchHelpers(t *testing.T) {
	Convey("Given a decoded match", t, func() {
		m := riot.Match{
			Info: riot.MatchInfo{
				QueueID:      440,
				GameDuration: 1800,
				Participants: []riot.Participant{
					{PUUID: "p1", TeamID: 100, Kills: 3, TotalMinionsKilled: 150, NeutralMinionsKilled: 20},
					{PUUID: "p2", TeamID: 100},
					{PUUID: "p3", TeamID: 200},
				},
			},
		}

		Convey("When computing derived values", func() {
			So(m.DurationMinutes(), ShouldEqual, 30)
			p, ok := m.ParticipantByPUUID("p1")
			So(ok, ShouldBeTrue)
			So(p.CS(), ShouldEqual, 170)
		})

		Convey("When listing teammates", func() {
			team := m.Teammates("p1")

			Convey("Then only the subject's team should be returned, subject included", func() {
				So(team, ShouldHaveLength, 2)
				for _, p := range team {
					So(p.TeamID, ShouldEqual, 100)
				}
			})
		})

		Convey("When the subject is absent", func() {
			So(m.Teammates("p9"), ShouldBeEmpty)
			_, ok := m.ParticipantByPUUID("p9")
			So(ok, ShouldBeFalse)
		})
	})
}
