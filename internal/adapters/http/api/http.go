// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/blackultras/flextrack/internal/domain/leaderboard"
	"github.com/blackultras/flextrack/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Leaderboard returns the cached ranked snapshot, rebuilding when stale.
	Leaderboard(ctx context.Context) (leaderboard.Snapshot, error)

	// Players returns every tracked player with current aggregates.
	Players(ctx context.Context) ([]model.Player, error)

	// SearchPlayer performs a one-off live lookup of a player's latest match.
	SearchPlayer(ctx context.Context, name, tag string) (model.SearchResult, error)

	// Queue operations for the FIFO player queue.
	Queue(ctx context.Context) ([]string, error)
	JoinQueue(ctx context.Context, name string) (bool, error)
	LeaveQueue(ctx context.Context, name string) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	playersHandler     *PlayersHandler
	searchHandler      *SearchHandler
	queueHandler       *QueueHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		searchHandler:      NewSearchHandler(deps),
		queueHandler:       NewQueueHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/api/players", MetricsMiddleware(s.playersHandler.HandleGetPlayers, "players"))
	mux.HandleFunc("/api/search", MetricsMiddleware(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("/api/queue", MetricsMiddleware(s.queueHandler.HandleQueue, "queue"))
	mux.HandleFunc("/api/queue/", MetricsMiddleware(s.queueHandler.HandleQueueEntry, "queue_entry"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
