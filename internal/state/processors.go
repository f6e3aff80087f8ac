package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mobastats/match-pipeline/internal/models"
	"github.com/mobastats/match-pipeline/internal/registry"
	"github.com/mobastats/match-pipeline/internal/store"
)

// ErrNotRegistered marks events that reference a player or team the registry
// has never seen. This only happens for events that arrive before the match's
// MATCH_START or after an unregister; the consumer acknowledges and drops.
var ErrNotRegistered = errors.New("not in player registry")

// Processor applies one event type's state transitions.
type Processor interface {
	Process(ctx context.Context, ev *models.GameEvent) error
}

// Env bundles the collaborators shared by all processors.
type Env struct {
	Store    store.Store
	Keys     store.Keyspace
	Registry *registry.PlayerRegistry
	Logger   *zap.SugaredLogger
	// StreakWindow is the multi-kill window in seconds.
	StreakWindow int
}

// Processors builds the type-keyed dispatch table.
func Processors(env *Env) map[models.EventType]Processor {
	return map[models.EventType]Processor{
		models.EventMatchStart:    &MatchStartProcessor{env},
		models.EventMinionKill:    &MinionKillProcessor{env},
		models.EventPlayerKill:    &PlayerKillProcessor{env},
		models.EventDragonKill:    &DragonKillProcessor{env},
		models.EventTurretDestroy: &TurretDestroyProcessor{env},
		models.EventMatchEnd:      &MatchEndProcessor{env},
	}
}

// MatchStartProcessor materializes the initial match, team and player records
// and populates the player registry.
type MatchStartProcessor struct {
	env *Env
}

func (p *MatchStartProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.MatchStartPayload)
	matchID := ev.MatchID

	index := make([]models.TeamIndexEntry, 0, len(payload.Teams))
	for _, team := range payload.Teams {
		entry := models.TeamIndexEntry{TeamID: team.TeamID, Players: make([]string, 0, len(team.Players))}
		for _, player := range team.Players {
			entry.Players = append(entry.Players, player.PlayerID)
		}
		index = append(index, entry)
	}
	teamsJSON, err := json.Marshal(index)
	if err != nil {
		return err
	}

	matchFields := map[string]any{
		"match_id":       matchID,
		"start_time":     payload.Fixture.StartTime,
		"title":          payload.Fixture.Title,
		"series_current": payload.Fixture.SeriesCurrent,
		"series_max":     payload.Fixture.SeriesMax,
		"series_type":    payload.Fixture.SeriesType,
		"teams":          string(teamsJSON),
		"first_blood":    "-1",
	}
	if err := p.env.Store.HSet(ctx, p.env.Keys.Match(matchID), matchFields); err != nil {
		return fmt.Errorf("write match state: %w", err)
	}

	for _, team := range payload.Teams {
		teamFields := map[string]any{
			"dragon_kills": 0,
			"tower_kills":  0,
		}
		if err := p.env.Store.HSet(ctx, p.env.Keys.Team(matchID, team.TeamID), teamFields); err != nil {
			return fmt.Errorf("write team state: %w", err)
		}
	}

	for _, team := range payload.Teams {
		for _, player := range team.Players {
			p.env.Registry.Register(player.PlayerID, matchID, team.TeamID)

			siblings := make([]string, 0, len(team.Players)-1)
			for _, other := range team.Players {
				if other.PlayerID != player.PlayerID {
					siblings = append(siblings, other.PlayerID)
				}
			}
			siblingsJSON, err := json.Marshal(siblings)
			if err != nil {
				return err
			}

			alive := 0
			if player.Alive {
				alive = 1
			}
			playerFields := map[string]any{
				"player_id":           player.PlayerID,
				"gold":                player.Gold,
				"alive":               alive,
				"name":                player.Name,
				"minion_kills":        0,
				"human_kills":         0,
				"human_kills_assists": 0,
				"team_members":        string(siblingsJSON),
			}
			if err := p.env.Store.HSet(ctx, p.env.Keys.Player(matchID, player.PlayerID), playerFields); err != nil {
				return fmt.Errorf("write player state: %w", err)
			}
		}
	}

	return nil
}

// MinionKillProcessor credits minion-kill gold and kill count.
type MinionKillProcessor struct {
	env *Env
}

func (p *MinionKillProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.MinionKillPayload)
	if payload.GoldGranted == nil {
		return nil
	}

	matchID, ok := p.env.Registry.MatchFor(payload.PlayerID)
	if !ok {
		return fmt.Errorf("player %s: %w", payload.PlayerID, ErrNotRegistered)
	}

	playerKey := p.env.Keys.Player(matchID, payload.PlayerID)
	if err := p.env.Store.HIncrBy(ctx, playerKey, "gold", *payload.GoldGranted); err != nil {
		return err
	}
	if err := p.env.Store.HIncrBy(ctx, playerKey, "minion_kills", 1); err != nil {
		return err
	}

	if ev.Timestamp == "" {
		return nil
	}
	ts, err := epochFromISO(ev.Timestamp)
	if err != nil {
		p.env.Logger.Warnw("Skipping kill history append", "error", err, "player", payload.PlayerID)
		return nil
	}
	return appendKillHistory(ctx, p.env.Store, p.env.Keys.KillHistory(matchID, payload.PlayerID), ts, killTypeMinion)
}

// PlayerKillProcessor credits the killer and assistants, records the victim's
// death, and maintains the match's first-blood timestamp.
type PlayerKillProcessor struct {
	env *Env
}

func (p *PlayerKillProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.PlayerKillPayload)

	if payload.KillerID != nil {
		killerID := *payload.KillerID
		matchID, ok := p.env.Registry.MatchFor(killerID)
		if !ok {
			return fmt.Errorf("killer %s: %w", killerID, ErrNotRegistered)
		}
		killerKey := p.env.Keys.Player(matchID, killerID)

		if payload.GoldGranted != nil {
			if err := p.env.Store.HIncrBy(ctx, killerKey, "gold", *payload.GoldGranted); err != nil {
				return err
			}
		}
		if err := p.env.Store.HIncrBy(ctx, killerKey, "human_kills", 1); err != nil {
			return err
		}

		if ev.Timestamp != "" {
			ts, err := epochFromISO(ev.Timestamp)
			if err != nil {
				return fmt.Errorf("player kill timestamp: %w", err)
			}
			historyKey := p.env.Keys.KillHistory(matchID, killerID)
			if err := appendKillHistory(ctx, p.env.Store, historyKey, ts, killTypeHuman); err != nil {
				return err
			}
		}
	}

	for _, assistantID := range payload.Assistants {
		matchID, ok := p.env.Registry.MatchFor(assistantID)
		if !ok {
			return fmt.Errorf("assistant %s: %w", assistantID, ErrNotRegistered)
		}
		assistantKey := p.env.Keys.Player(matchID, assistantID)
		if payload.AssistGold != nil {
			if err := p.env.Store.HIncrBy(ctx, assistantKey, "gold", *payload.AssistGold); err != nil {
				return err
			}
		}
		if err := p.env.Store.HIncrBy(ctx, assistantKey, "human_kills_assists", 1); err != nil {
			return err
		}
	}

	if payload.VictimID != nil && ev.Timestamp != "" {
		victimID := *payload.VictimID
		matchID, ok := p.env.Registry.MatchFor(victimID)
		if !ok {
			return fmt.Errorf("victim %s: %w", victimID, ErrNotRegistered)
		}
		ts, err := epochFromISO(ev.Timestamp)
		if err != nil {
			return fmt.Errorf("player kill timestamp: %w", err)
		}
		deathKey := p.env.Keys.DeathHistory(matchID, victimID)
		if err := p.env.Store.ZAdd(ctx, deathKey, formatEpoch(ts), ts); err != nil {
			return err
		}
	}

	return p.updateFirstBlood(ctx, ev, payload)
}

// updateFirstBlood lowers the match's first_blood timestamp if this kill is
// earlier than the current value. The read-modify-write is not atomic; with a
// single state-update consumer updates are serial, and the rule is monotone
// down so late observers cannot raise the value.
func (p *PlayerKillProcessor) updateFirstBlood(ctx context.Context, ev *models.GameEvent, payload models.PlayerKillPayload) error {
	if ev.Timestamp == "" {
		return nil
	}
	var playerID string
	switch {
	case payload.KillerID != nil:
		playerID = *payload.KillerID
	case payload.VictimID != nil:
		playerID = *payload.VictimID
	default:
		return nil
	}

	ts, err := epochFromISO(ev.Timestamp)
	if err != nil {
		return fmt.Errorf("player kill timestamp: %w", err)
	}

	matchID, ok := p.env.Registry.MatchFor(playerID)
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotRegistered)
	}
	matchKey := p.env.Keys.Match(matchID)

	current, err := p.env.Store.HGet(ctx, matchKey, "first_blood")
	if err != nil {
		return err
	}
	if current == "-1" || current == "" {
		return p.env.Store.HSet(ctx, matchKey, map[string]any{"first_blood": formatEpoch(ts)})
	}
	currentTS, err := parseFloatField(current)
	if err != nil {
		return fmt.Errorf("first_blood field: %w", err)
	}
	if ts < currentTS {
		return p.env.Store.HSet(ctx, matchKey, map[string]any{"first_blood": formatEpoch(ts)})
	}
	return nil
}

// DragonKillProcessor credits dragon-kill gold and the team's dragon counter.
type DragonKillProcessor struct {
	env *Env
}

func (p *DragonKillProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.DragonKillPayload)
	if payload.GoldGranted == nil || payload.KillerID == "" {
		return nil
	}

	matchID, ok := p.env.Registry.MatchFor(payload.KillerID)
	if !ok {
		return fmt.Errorf("killer %s: %w", payload.KillerID, ErrNotRegistered)
	}
	killerKey := p.env.Keys.Player(matchID, payload.KillerID)
	if err := p.env.Store.HIncrBy(ctx, killerKey, "gold", *payload.GoldGranted); err != nil {
		return err
	}

	if ev.Timestamp != "" {
		ts, err := epochFromISO(ev.Timestamp)
		if err != nil {
			return fmt.Errorf("dragon kill timestamp: %w", err)
		}
		historyKey := p.env.Keys.KillHistory(matchID, payload.KillerID)
		if err := appendKillHistory(ctx, p.env.Store, historyKey, ts, killTypeDragon); err != nil {
			return err
		}
	}

	teamID, ok := p.env.Registry.TeamFor(payload.KillerID)
	if !ok {
		return fmt.Errorf("killer %s team: %w", payload.KillerID, ErrNotRegistered)
	}
	return p.env.Store.HIncrBy(ctx, p.env.Keys.Team(matchID, teamID), "dragon_kills", 1)
}

// TurretDestroyProcessor credits the destroying team's tower counter and
// splits turret gold between the killer and their teammates.
type TurretDestroyProcessor struct {
	env *Env
}

func (p *TurretDestroyProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.TurretDestroyPayload)
	if payload.KillerID == nil {
		return nil
	}
	killerID := *payload.KillerID

	teamID := ""
	if payload.KillerTeamID != nil {
		teamID = *payload.KillerTeamID
	} else if t, ok := p.env.Registry.TeamFor(killerID); ok {
		teamID = t
	}
	matchID, ok := p.env.Registry.MatchForTeam(teamID)
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrNotRegistered)
	}

	if err := p.env.Store.HIncrBy(ctx, p.env.Keys.Team(matchID, teamID), "tower_kills", 1); err != nil {
		return err
	}

	for _, playerID := range p.env.Registry.PlayersForTeam(teamID) {
		granted := payload.TeamGoldGranted
		if playerID == killerID {
			granted = payload.PlayerGoldGranted
		}
		if granted == nil {
			continue
		}
		playerKey := p.env.Keys.Player(matchID, playerID)
		if err := p.env.Store.HIncrBy(ctx, playerKey, "gold", *granted); err != nil {
			return err
		}
	}

	return nil
}

// MatchEndProcessor finalizes the match: records the winner and runs the
// end-of-match derivations for every registered player.
type MatchEndProcessor struct {
	env *Env
}

func (p *MatchEndProcessor) Process(ctx context.Context, ev *models.GameEvent) error {
	payload := ev.Payload.(models.MatchEndPayload)
	matchID := ev.MatchID

	winner := map[string]any{"winning_team_id": payload.WinningTeamID}
	if err := p.env.Store.HSet(ctx, p.env.Keys.Match(matchID), winner); err != nil {
		return fmt.Errorf("write winning team: %w", err)
	}

	for _, playerID := range p.env.Registry.PlayersForMatch(matchID) {
		if err := p.finalizePlayer(ctx, matchID, playerID); err != nil {
			return fmt.Errorf("finalize player %s: %w", playerID, err)
		}
	}
	return nil
}

func (p *MatchEndProcessor) finalizePlayer(ctx context.Context, matchID, playerID string) error {
	kills, err := readKillHistory(ctx, p.env.Store, p.env.Keys.KillHistory(matchID, playerID))
	if err != nil {
		return err
	}

	timestamps := make([]float64, 0, len(kills))
	for _, kill := range kills {
		timestamps = append(timestamps, kill.Timestamp)
	}
	streaks := KillStreaks(timestamps, float64(p.env.StreakWindow))
	streaksJSON, err := json.Marshal(streaks)
	if err != nil {
		return err
	}

	deaths, err := readDeathHistory(ctx, p.env.Store, p.env.Keys.DeathHistory(matchID, playerID))
	if err != nil {
		return err
	}
	spree := MaxKillingSpree(kills, deaths)

	playerKey := p.env.Keys.Player(matchID, playerID)
	return p.env.Store.HSet(ctx, playerKey, map[string]any{
		"kill_streaks":      string(streaksJSON),
		"max_killing_spree": spree,
	})
}
