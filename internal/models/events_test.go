package models

import "testing"

func TestParseEventType(t *testing.T) {
	tests := []struct {
		raw  string
		want EventType
	}{
		{"MATCH_START", EventMatchStart},
		{"MINION_KILL", EventMinionKill},
		{"PLAYER_KILL", EventPlayerKill},
		{"DRAGON_KILL", EventDragonKill},
		{"TURRET_DESTROY", EventTurretDestroy},
		{"MATCH_END", EventMatchEnd},
		{"BARON_KILL", EventUnknown},
		{"match_start", EventUnknown},
		{"", EventUnknown},
	}
	for _, tt := range tests {
		if got := ParseEventType(tt.raw); got != tt.want {
			t.Errorf("ParseEventType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDecodeStoredEvent(t *testing.T) {
	fields := map[string]string{
		"matchID":   "match-1",
		"type":      "MINION_KILL",
		"timestamp": "2024-01-01T12:00:10Z",
		"payload":   `{"playerID":"player_1","goldGranted":20}`,
	}

	ev, err := DecodeStoredEvent(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.MatchID != "match-1" || ev.Type != EventMinionKill || ev.Timestamp != "2024-01-01T12:00:10Z" {
		t.Errorf("envelope = %+v", ev)
	}

	payload, ok := ev.Payload.(MinionKillPayload)
	if !ok {
		t.Fatalf("payload type = %T", ev.Payload)
	}
	if payload.PlayerID != "player_1" || payload.GoldGranted == nil || *payload.GoldGranted != 20 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestDecodeStoredEventOptionalFields(t *testing.T) {
	fields := map[string]string{
		"matchID": "match-1",
		"type":    "PLAYER_KILL",
		"payload": `{"victimID":"player_3"}`,
	}

	ev, err := DecodeStoredEvent(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	payload := ev.Payload.(PlayerKillPayload)
	if payload.KillerID != nil || payload.GoldGranted != nil {
		t.Errorf("absent optionals must stay nil: %+v", payload)
	}
	if payload.VictimID == nil || *payload.VictimID != "player_3" {
		t.Errorf("victimID = %v", payload.VictimID)
	}
}

func TestDecodeStoredEventUnknownType(t *testing.T) {
	ev, err := DecodeStoredEvent(map[string]string{
		"matchID": "match-1",
		"type":    "BARON_KILL",
		"payload": `{"anything":"goes"}`,
	})
	if err != nil {
		t.Fatalf("unknown types must decode without error, got %v", err)
	}
	if ev.Type != EventUnknown || ev.Payload != nil {
		t.Errorf("ev = %+v", ev)
	}
}

func TestDecodeStoredEventMissingPayload(t *testing.T) {
	_, err := DecodeStoredEvent(map[string]string{
		"matchID": "match-1",
		"type":    "MATCH_END",
	})
	if err == nil {
		t.Fatal("missing payload field must fail")
	}
}

func TestDecodeStoredEventRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		payload string
	}{
		{"not JSON", "MINION_KILL", `{playerID`},
		{"missing required scalar", "MINION_KILL", `{"goldGranted":20}`},
		{"missing winning team", "MATCH_END", `{}`},
		{"nested required field", "MATCH_START",
			`{"fixture":{"startTime":"2024-01-01T12:00:00Z","title":"a vs b","seriesType":"BO3"},` +
				`"teams":[{"teamID":"team_1","players":[{"playerID":"player_1"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStoredEvent(map[string]string{
				"matchID": "match-1",
				"type":    tt.typ,
				"payload": tt.payload,
			})
			if err == nil {
				t.Error("decode must fail")
			}
		})
	}
}

func TestDecodeStoredEventMatchStart(t *testing.T) {
	payload := `{
		"fixture": {"startTime": "2024-01-01T12:00:00Z", "title": "team_1 vs team_2",
			"seriesCurrent": 1, "seriesMax": 3, "seriesType": "BO3"},
		"teams": [
			{"teamID": "team_1", "players": [
				{"playerID": "player_1", "gold": 500, "alive": true, "name": "Alpha"}]},
			{"teamID": "team_2", "players": [
				{"playerID": "player_2", "gold": 500, "alive": true, "name": "Bravo"}]}
		]
	}`

	ev, err := DecodeStoredEvent(map[string]string{
		"matchID": "match-1",
		"type":    "MATCH_START",
		"payload": payload,
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	start := ev.Payload.(MatchStartPayload)
	if start.Fixture.Title != "team_1 vs team_2" || start.Fixture.SeriesMax != 3 {
		t.Errorf("fixture = %+v", start.Fixture)
	}
	if len(start.Teams) != 2 || start.Teams[0].Players[0].Name != "Alpha" {
		t.Errorf("teams = %+v", start.Teams)
	}
	if !start.Teams[1].Players[0].Alive {
		t.Error("alive flag lost in decode")
	}
}
