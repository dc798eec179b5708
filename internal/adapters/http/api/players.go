package api

import (
	"net/http"
	"time"
)

// playerView mirrors the JSON shape returned by GET /api/players.
type playerView struct {
	GameName       string   `json:"game_name"`
	TagLine        string   `json:"tag_line"`
	AverageScore   float64  `json:"average_score"`
	TotalScore     float64  `json:"total_score"`
	HighestScore   *float64 `json:"highest_score"`
	LowestScore    *float64 `json:"lowest_score"`
	MostPlayedRole string   `json:"most_played_role"`
	MatchCount     int      `json:"match_count"`
	LastUpdated    string   `json:"last_updated"`
}

// PlayersHandler handles tracked-player listing.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleGetPlayers handles GET /api/players requests.
func (h *PlayersHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	players, err := h.deps.Players(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	views := make([]playerView, 0, len(players))
	for _, p := range players {
		views = append(views, playerView{
			GameName:       p.GameName,
			TagLine:        p.TagLine,
			AverageScore:   p.AverageScore,
			TotalScore:     p.TotalScore,
			HighestScore:   p.HighestScore,
			LowestScore:    p.LowestScore,
			MostPlayedRole: p.MostPlayedRole.String(),
			MatchCount:     p.MatchCount,
			LastUpdated:    p.LastUpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": views})
}
