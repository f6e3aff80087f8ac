package models

// GameState is the materialized per-match view assembled by the read path.
type GameState struct {
	MatchID       string                `json:"match_id"`
	Title         string                `json:"title"`
	StartTime     string                `json:"start_time"`
	SeriesType    string                `json:"series_type"`
	SeriesCurrent int                   `json:"series_current"`
	SeriesMax     int                   `json:"series_max"`
	WinningTeamID string                `json:"winning_team_id"`
	FirstBlood    string                `json:"first_blood"`
	Teams         map[string]*TeamState `json:"teams"`
}

type TeamState struct {
	TeamID      string                  `json:"team_id"`
	DragonKills int64                   `json:"dragon_kills"`
	TowerKills  int64                   `json:"tower_kills"`
	Players     map[string]*PlayerState `json:"players"`
}

type PlayerState struct {
	PlayerID          string   `json:"player_id"`
	Name              string   `json:"name"`
	Alive             bool     `json:"alive"`
	Gold              int64    `json:"gold"`
	HumanKills        int64    `json:"human_kills"`
	HumanKillsAssists int64    `json:"human_kills_assists"`
	MinionKills       int64    `json:"minion_kills"`
	KillStreaks       []string `json:"kill_streaks"`
	// MaxKillingSpree is the rendered label; empty when the raw spree is
	// below the labeled range.
	MaxKillingSpree string `json:"max_killing_spree,omitempty"`
}

// TeamIndexEntry is one element of the JSON-encoded teams index stored on the
// match hash at MATCH_START.
type TeamIndexEntry struct {
	TeamID  string   `json:"team_id"`
	Players []string `json:"players"`
}
