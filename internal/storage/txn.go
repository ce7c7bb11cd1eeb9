package storage

import (
	"bankroom/internal/model"
)

// RoomTxn is the transactional view of one room's documents passed to
// MutateRoom closures. Reads see the state at transaction start;
// changes are staged and committed together by the implementation.
type RoomTxn struct {
	room         *model.Room // nil when the room does not exist
	players      map[model.PlayerHandle]model.Player
	appended     []model.Transaction
	roomDirty    bool
	playersDirty bool
}

// NewRoomTxn builds a transaction view from the stored state. Intended
// for Storage implementations.
func NewRoomTxn(room *model.Room, players []model.Player) *RoomTxn {
	m := make(map[model.PlayerHandle]model.Player, len(players))
	for _, p := range players {
		m[p.Handle] = p
	}
	var r *model.Room
	if room != nil {
		copied := *room
		r = &copied
	}
	return &RoomTxn{room: r, players: m}
}

// Room returns the room document, or nil if the room does not exist.
// Mutations must go through SetRoom.
func (t *RoomTxn) Room() *model.Room {
	if t.room == nil {
		return nil
	}
	copied := *t.room
	return &copied
}

// SetRoom stages a write of the room document
func (t *RoomTxn) SetRoom(room model.Room) {
	t.room = &room
	t.roomDirty = true
}

// Players returns the roster in join order
func (t *RoomTxn) Players() []model.Player {
	players := make([]model.Player, 0, len(t.players))
	for _, p := range t.players {
		players = append(players, p)
	}
	model.SortPlayersByJoinTime(players)
	return players
}

// PlayerByPrincipal returns the roster entry owned by a principal
func (t *RoomTxn) PlayerByPrincipal(id model.PrincipalID) (model.Player, bool) {
	for _, p := range t.players {
		if p.PrincipalID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

// PlayerByName returns the first roster entry, in join order, whose
// display name matches. Duplicate names resolve to the earliest joiner.
func (t *RoomTxn) PlayerByName(name string) (model.Player, bool) {
	for _, p := range t.Players() {
		if p.DisplayName == name {
			return p, true
		}
	}
	return model.Player{}, false
}

// PutPlayer stages an insert or update of a player document
func (t *RoomTxn) PutPlayer(p model.Player) {
	t.players[p.Handle] = p
	t.playersDirty = true
}

// RemovePlayer stages a delete of a player document
func (t *RoomTxn) RemovePlayer(handle model.PlayerHandle) {
	if _, ok := t.players[handle]; ok {
		delete(t.players, handle)
		t.playersDirty = true
	}
}

// AppendTransaction stages an append to the room's transaction log
func (t *RoomTxn) AppendTransaction(x model.Transaction) {
	t.appended = append(t.appended, x)
}

// RoomChanged reports whether the room document was staged for write
func (t *RoomTxn) RoomChanged() bool { return t.roomDirty }

// PlayersChanged reports whether the roster was staged for write
func (t *RoomTxn) PlayersChanged() bool { return t.playersDirty }

// Appended returns the staged transaction log entries
func (t *RoomTxn) Appended() []model.Transaction { return t.appended }
