package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EventType discriminates the payload shape of a game event.
type EventType string

const (
	EventMatchStart    EventType = "MATCH_START"
	EventMinionKill    EventType = "MINION_KILL"
	EventPlayerKill    EventType = "PLAYER_KILL"
	EventDragonKill    EventType = "DRAGON_KILL"
	EventTurretDestroy EventType = "TURRET_DESTROY"
	EventMatchEnd      EventType = "MATCH_END"
	EventUnknown       EventType = "UNKNOWN"
)

// ParseEventType maps a raw type tag to an EventType. Unrecognized or empty
// tags degrade to EventUnknown; they are never an error.
func ParseEventType(s string) EventType {
	switch EventType(s) {
	case EventMatchStart, EventMinionKill, EventPlayerKill, EventDragonKill,
		EventTurretDestroy, EventMatchEnd:
		return EventType(s)
	default:
		return EventUnknown
	}
}

var validate = validator.New()

// GameEvent is the typed envelope after payload discrimination. Payload is nil
// for EventUnknown.
type GameEvent struct {
	MatchID   string
	Type      EventType
	Timestamp string
	Payload   Payload
}

// Payload is the tagged union over the per-type payload shapes.
type Payload interface {
	isPayload()
}

type MatchStartPayload struct {
	Fixture GameFixture `json:"fixture" validate:"required"`
	Teams   []MatchTeam `json:"teams" validate:"required,dive"`
}

type GameFixture struct {
	StartTime     string `json:"startTime" validate:"required"`
	Title         string `json:"title" validate:"required"`
	SeriesCurrent int    `json:"seriesCurrent"`
	SeriesMax     int    `json:"seriesMax"`
	SeriesType    string `json:"seriesType" validate:"required"`
}

type MatchTeam struct {
	TeamID  string        `json:"teamID" validate:"required"`
	Players []MatchPlayer `json:"players" validate:"required,dive"`
}

type MatchPlayer struct {
	PlayerID string `json:"playerID" validate:"required"`
	Gold     int64  `json:"gold"`
	Alive    bool   `json:"alive"`
	Name     string `json:"name" validate:"required"`
}

type MinionKillPayload struct {
	PlayerID    string `json:"playerID" validate:"required"`
	GoldGranted *int64 `json:"goldGranted"`
}

type PlayerKillPayload struct {
	KillerID    *string  `json:"killerID"`
	VictimID    *string  `json:"victimID"`
	GoldGranted *int64   `json:"goldGranted"`
	Assistants  []string `json:"assistants"`
	AssistGold  *int64   `json:"assistGold"`
}

type DragonKillPayload struct {
	KillerID    string  `json:"killerID" validate:"required"`
	DragonType  *string `json:"dragonType"`
	GoldGranted *int64  `json:"goldGranted"`
}

type TurretDestroyPayload struct {
	KillerID          *string `json:"killerID"`
	KillerTeamID      *string `json:"killerTeamID"`
	TurretTier        *int    `json:"turretTier"`
	TurretLane        *string `json:"turretLane"`
	PlayerGoldGranted *int64  `json:"playerGoldGranted"`
	TeamGoldGranted   *int64  `json:"teamGoldGranted"`
}

type MatchEndPayload struct {
	WinningTeamID string `json:"winningTeamID" validate:"required"`
}

func (MatchStartPayload) isPayload()    {}
func (MinionKillPayload) isPayload()    {}
func (PlayerKillPayload) isPayload()    {}
func (DragonKillPayload) isPayload()    {}
func (TurretDestroyPayload) isPayload() {}
func (MatchEndPayload) isPayload()      {}

// DecodeStoredEvent rebuilds a GameEvent from the flat hash written by the
// ingress stage. The payload field holds the JSON-encoded inner payload; it is
// decoded into the shape selected by the type tag and validated for required
// fields. Unknown types decode with a nil payload.
func DecodeStoredEvent(fields map[string]string) (*GameEvent, error) {
	ev := &GameEvent{
		MatchID:   fields["matchID"],
		Type:      ParseEventType(fields["type"]),
		Timestamp: fields["timestamp"],
	}
	if ev.Type == EventUnknown {
		return ev, nil
	}

	raw, ok := fields["payload"]
	if !ok {
		return nil, fmt.Errorf("event %s: missing payload field", ev.Type)
	}

	payload, err := decodePayload(ev.Type, []byte(raw))
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.Type, err)
	}
	ev.Payload = payload
	return ev, nil
}

func decodePayload(t EventType, raw []byte) (Payload, error) {
	switch t {
	case EventMatchStart:
		return unmarshalPayload[MatchStartPayload](raw)
	case EventMinionKill:
		return unmarshalPayload[MinionKillPayload](raw)
	case EventPlayerKill:
		return unmarshalPayload[PlayerKillPayload](raw)
	case EventDragonKill:
		return unmarshalPayload[DragonKillPayload](raw)
	case EventTurretDestroy:
		return unmarshalPayload[TurretDestroyPayload](raw)
	case EventMatchEnd:
		return unmarshalPayload[MatchEndPayload](raw)
	default:
		return nil, nil
	}
}

func unmarshalPayload[P Payload](raw []byte) (Payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}
	return p, nil
}
