package model

import "sort"

// RoomSnapshot is the merged view of a room and its full roster, as
// delivered to subscribers and returned by room reads. Roster order is
// join order; callers must not rely on it staying stable across calls.
type RoomSnapshot struct {
	Room    Room
	Players []Player
}

// GetPlayerByPrincipal returns the roster entry for a principal, or nil
func (s *RoomSnapshot) GetPlayerByPrincipal(id PrincipalID) *Player {
	for i := range s.Players {
		if s.Players[i].PrincipalID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// GetHost returns the host's roster entry, or nil if none
func (s *RoomSnapshot) GetHost() *Player {
	for i := range s.Players {
		if s.Players[i].IsHost {
			return &s.Players[i]
		}
	}
	return nil
}

// SortPlayersByJoinTime orders a roster by join time, breaking ties by
// handle. Used wherever "first match in roster order" must be
// deterministic.
func SortPlayersByJoinTime(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].Handle < players[j].Handle
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
}
