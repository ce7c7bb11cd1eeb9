package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PrincipalID is the externally-authenticated identity of a user
type PrincipalID string

// PlayerHandle identifies a player record within a room. It is
// generated by the coordinator and distinct from the principal id, so
// a principal cannot overwrite another's record by id collision.
type PlayerHandle string

// PlayerHandlePrefix marks a handle as a player storage key
const PlayerHandlePrefix = "P"

// DefaultStartingBalance is the balance every player receives on join
const DefaultStartingBalance int64 = 1500

// NewPlayerHandle generates a unique player handle
func NewPlayerHandle() PlayerHandle {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return PlayerHandle(PlayerHandlePrefix + raw)
}

// Player represents a room-scoped participant carrying a balance.
// DisplayName is snapshotted at join time and not live-linked to the
// identity directory.
type Player struct {
	Handle      PlayerHandle
	PrincipalID PrincipalID
	DisplayName string
	IsHost      bool
	Balance     int64
	IsBankrupt  bool
	JoinedAt    time.Time
}
