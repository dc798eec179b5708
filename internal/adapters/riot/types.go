package riot

// Wire shapes for the subset of the account-v1 and match-v5 endpoints the
// sync pipeline reads. Field names mirror the upstream JSON.

// Account is the response of /riot/account/v1/accounts/by-riot-id.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// Match is the body of /lol/match/v5/matches/{id}.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

// MatchMetadata carries the match id and participant PUUIDs.
type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

// MatchInfo carries queue, timing and per-participant counters.
type MatchInfo struct {
	QueueID      int           `json:"queueId"`
	GameCreation int64         `json:"gameCreation"` // unix millis
	GameDuration int64         `json:"gameDuration"` // seconds
	Participants []Participant `json:"participants"`
}

// Participant is one player's stat line within a match.
type Participant struct {
	PUUID                       string `json:"puuid"`
	SummonerName                string `json:"summonerName"`
	RiotIDGameName              string `json:"riotIdGameName"`
	ChampionName                string `json:"championName"`
	TeamID                      int    `json:"teamId"`
	TeamPosition                string `json:"teamPosition"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	VisionScore                 int    `json:"visionScore"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	Win                         bool   `json:"win"`
}

// CS is the creep score: lane minions plus neutral monsters.
func (p Participant) CS() int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}

// DurationMinutes converts the match duration to minutes.
func (m Match) DurationMinutes() float64 {
	return float64(m.Info.GameDuration) / 60.0
}

// ParticipantByPUUID locates a participant's stat line, reporting presence.
func (m Match) ParticipantByPUUID(puuid string) (Participant, bool) {
	for _, p := range m.Info.Participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return Participant{}, false
}

// Teammates returns every participant sharing a team with puuid, the subject
// included. The empty slice means the subject was not in the match.
func (m Match) Teammates(puuid string) []Participant {
	subject, ok := m.ParticipantByPUUID(puuid)
	if !ok {
		return nil
	}
	var team []Participant
	for _, p := range m.Info.Participants {
		if p.TeamID == subject.TeamID {
			team = append(team, p)
		}
	}
	return team
}
