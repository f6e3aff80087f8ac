package store

// Keyspace builds the composite keys under the two configurable namespaces:
// one for buffered raw events, one for aggregate match state.
type Keyspace struct {
	Events string
	State  string
}

// Event addresses the raw event hash written by the ingress stage.
func (k Keyspace) Event(eventID string) string {
	return k.Events + ":event:" + eventID
}

// Match addresses the per-match state hash.
func (k Keyspace) Match(matchID string) string {
	return k.State + ":game:" + matchID
}

// Team addresses the per-team state hash.
func (k Keyspace) Team(matchID, teamID string) string {
	return k.Match(matchID) + ":team:" + teamID
}

// Player addresses the per-player state hash.
func (k Keyspace) Player(matchID, playerID string) string {
	return k.Match(matchID) + ":player:" + playerID
}

// KillHistory addresses a player's timestamp-scored kill history.
func (k Keyspace) KillHistory(matchID, playerID string) string {
	return k.Player(matchID, playerID) + ":kill_history"
}

// DeathHistory addresses a player's timestamp-scored death history.
func (k Keyspace) DeathHistory(matchID, playerID string) string {
	return k.Player(matchID, playerID) + ":death_history"
}
