package model

import "time"

// User is an identity-directory entry resolving a principal to a
// display name. Stored separately from room players; a player's name is
// snapshotted from here at join time.
type User struct {
	PrincipalID  PrincipalID
	Username     string // login username (immutable)
	DisplayName  string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
