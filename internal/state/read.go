package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mobastats/match-pipeline/internal/models"
	"github.com/mobastats/match-pipeline/internal/store"
)

// ErrMatchNotFound is returned when no state exists for a match, which also
// covers matches whose MATCH_START has not been applied yet.
var ErrMatchNotFound = errors.New("match state not found")

// Reader assembles the nested GameState view from the per-match records.
type Reader struct {
	store store.Store
	keys  store.Keyspace
}

func NewReader(s store.Store, keys store.Keyspace) *Reader {
	return &Reader{store: s, keys: keys}
}

// GameState reads the match hash, walks its teams index, and materializes the
// full nested view. first_blood is rendered from its stored epoch-seconds
// value back into ISO-8601 UTC; the raw max_killing_spree integer is rendered
// through the spree label map.
func (r *Reader) GameState(ctx context.Context, matchID string) (*models.GameState, error) {
	matchFields, err := r.store.HGetAll(ctx, r.keys.Match(matchID))
	if err != nil {
		return nil, err
	}
	if len(matchFields) == 0 {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
	}

	var index []models.TeamIndexEntry
	if err := json.Unmarshal([]byte(matchFields["teams"]), &index); err != nil {
		return nil, fmt.Errorf("match %s: decode teams index: %w", matchID, err)
	}

	game := &models.GameState{
		MatchID:       matchFields["match_id"],
		Title:         matchFields["title"],
		StartTime:     matchFields["start_time"],
		SeriesType:    matchFields["series_type"],
		SeriesCurrent: int(intField(matchFields["series_current"])),
		SeriesMax:     int(intField(matchFields["series_max"])),
		WinningTeamID: matchFields["winning_team_id"],
		FirstBlood:    renderFirstBlood(matchFields["first_blood"]),
		Teams:         make(map[string]*models.TeamState, len(index)),
	}

	for _, entry := range index {
		teamFields, err := r.store.HGetAll(ctx, r.keys.Team(matchID, entry.TeamID))
		if err != nil {
			return nil, err
		}
		team := &models.TeamState{
			TeamID:      entry.TeamID,
			DragonKills: intField(teamFields["dragon_kills"]),
			TowerKills:  intField(teamFields["tower_kills"]),
			Players:     make(map[string]*models.PlayerState, len(entry.Players)),
		}

		for _, playerID := range entry.Players {
			player, err := r.playerState(ctx, matchID, playerID)
			if err != nil {
				return nil, fmt.Errorf("player %s: %w", playerID, err)
			}
			team.Players[playerID] = player
		}
		game.Teams[entry.TeamID] = team
	}

	return game, nil
}

func (r *Reader) playerState(ctx context.Context, matchID, playerID string) (*models.PlayerState, error) {
	fields, err := r.store.HGetAll(ctx, r.keys.Player(matchID, playerID))
	if err != nil {
		return nil, err
	}

	streaks := []string{}
	if raw := fields["kill_streaks"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &streaks); err != nil {
			return nil, fmt.Errorf("decode kill_streaks: %w", err)
		}
	}

	return &models.PlayerState{
		PlayerID:          fields["player_id"],
		Name:              fields["name"],
		Alive:             fields["alive"] == "1",
		Gold:              intField(fields["gold"]),
		HumanKills:        intField(fields["human_kills"]),
		HumanKillsAssists: intField(fields["human_kills_assists"]),
		MinionKills:       intField(fields["minion_kills"]),
		KillStreaks:       streaks,
		MaxKillingSpree:   SpreeLabel(int(intField(fields["max_killing_spree"]))),
	}, nil
}

// renderFirstBlood maps the stored epoch seconds to ISO-8601 UTC. The "-1"
// sentinel (no kill observed) passes through unchanged.
func renderFirstBlood(raw string) string {
	if raw == "" || raw == "-1" {
		return "-1"
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "-1"
	}
	return isoFromEpoch(ts)
}
