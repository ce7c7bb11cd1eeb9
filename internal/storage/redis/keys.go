package redis

import (
	"fmt"

	"bankroom/internal/model"
)

// Key prefix for all coordinator data
const keyPrefix = "bankroom"

// roomKey returns the Redis key for a Room document
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// playersKey returns the Redis key for a room's roster hash
// (player handle -> player document)
func playersKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:players:%s", keyPrefix, code)
}

// txlogKey returns the Redis key for a room's transaction log list
func txlogKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:txlog:%s", keyPrefix, code)
}

// userKey returns the Redis key for a User document
func userKey(id model.PrincipalID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> principal index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// roomChannel returns the pub/sub channel carrying room-document changes
func roomChannel(code model.RoomCode) string {
	return fmt.Sprintf("%s:ch:room:%s", keyPrefix, code)
}

// playersChannel returns the pub/sub channel carrying roster changes
func playersChannel(code model.RoomCode) string {
	return fmt.Sprintf("%s:ch:players:%s", keyPrefix, code)
}
