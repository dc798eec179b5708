package model

// TeamScore is one teammate's scored line from a searched match.
type TeamScore struct {
	Name     string  `json:"name"`
	Champion string  `json:"champion"`
	Role     string  `json:"role"`
	Score    float64 `json:"score"`
}

// SearchResult reports a one-off lookup of a player's latest match.
type SearchResult struct {
	Player         string      `json:"player"`
	MatchID        string      `json:"match_id"`
	Scores         []TeamScore `json:"scores"` // ascending, worst first
	PlayerToRemove *TeamScore  `json:"player_to_remove"`
}
