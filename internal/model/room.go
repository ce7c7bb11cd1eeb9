package model

import "time"

// RoomCode is a human-typeable identifier for joining rooms
type RoomCode string

// RoomStatus represents the current state of a room
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"     // Accepting players
	RoomStatusInProgress RoomStatus = "in_progress" // Game underway
)

// DefaultMaxPlayers is the room capacity applied on creation
const DefaultMaxPlayers = 6

// Room represents a single game session with membership and status.
// Players and the transaction log are stored alongside it, keyed by
// the room code.
type Room struct {
	Code        RoomCode
	Status      RoomStatus
	HostID      PrincipalID
	PlayerCount int
	MaxPlayers  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time // nil until the game starts
}

// IsFull reports whether the room has reached capacity
func (r *Room) IsFull() bool {
	return r.PlayerCount >= r.MaxPlayers
}
