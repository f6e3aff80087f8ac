// Package registry holds the in-process index from players and teams to the
// match they belong to. It is populated by the match-start processor and read
// by every other processor to resolve store keys without extra round trips.
//
// The registry is not persisted: a single long-lived process is assumed to
// serve a match from start to end, and surviving a crash mid-match is not
// supported.
package registry

import "sync"

type membership struct {
	matchID string
	teamID  string
}

// PlayerRegistry maps playerID -> (match, team) and teamID -> match.
// Safe for concurrent use; the ingress and state-update consumers run as
// separate goroutines.
type PlayerRegistry struct {
	mu      sync.RWMutex
	players map[string]membership
	teams   map[string]string
}

func New() *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[string]membership),
		teams:   make(map[string]string),
	}
}

// Register records a player's match and team, and the team's match.
func (r *PlayerRegistry) Register(playerID, matchID, teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[playerID] = membership{matchID: matchID, teamID: teamID}
	r.teams[teamID] = matchID
}

// MatchFor returns the match a player is registered to.
func (r *PlayerRegistry) MatchFor(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.players[playerID]
	return m.matchID, ok
}

// MatchForTeam returns the match a team is registered to.
func (r *PlayerRegistry) MatchForTeam(teamID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matchID, ok := r.teams[teamID]
	return matchID, ok
}

// TeamFor returns the team a player is registered to.
func (r *PlayerRegistry) TeamFor(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.players[playerID]
	return m.teamID, ok
}

// PlayersForTeam returns every player registered to the given team.
func (r *PlayerRegistry) PlayersForTeam(teamID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for playerID, m := range r.players {
		if m.teamID == teamID {
			ids = append(ids, playerID)
		}
	}
	return ids
}

// PlayersForMatch returns every player registered to the given match.
func (r *PlayerRegistry) PlayersForMatch(matchID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for playerID, m := range r.players {
		if m.matchID == matchID {
			ids = append(ids, playerID)
		}
	}
	return ids
}

// Unregister removes a player.
func (r *PlayerRegistry) Unregister(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, playerID)
}

// UnregisterTeam removes a team.
func (r *PlayerRegistry) UnregisterTeam(teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.teams, teamID)
}
