package store

import "testing"

func TestKeyspace(t *testing.T) {
	k := Keyspace{Events: "game_events", State: "game_state"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"event", k.Event("abc-123"), "game_events:event:abc-123"},
		{"match", k.Match("match-1"), "game_state:game:match-1"},
		{"team", k.Team("match-1", "team_1"), "game_state:game:match-1:team:team_1"},
		{"player", k.Player("match-1", "player_1"), "game_state:game:match-1:player:player_1"},
		{"kill history", k.KillHistory("match-1", "player_1"),
			"game_state:game:match-1:player:player_1:kill_history"},
		{"death history", k.DeathHistory("match-1", "player_1"),
			"game_state:game:match-1:player:player_1:death_history"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s key = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
