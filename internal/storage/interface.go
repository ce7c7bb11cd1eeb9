package storage

import (
	"context"

	"bankroom/internal/model"
)

// CancelFunc tears down a change feed. Implementations must make it
// safe to call more than once.
type CancelFunc func()

// Storage defines the interface for data persistence and change
// notification. Rooms, rosters and transaction logs are keyed by room
// code; users form the identity directory.
//
// All room mutations go through MutateRoom so that check-then-act
// sequences (duplicate-join detection, funds checks, counter updates)
// are applied atomically against the room's documents.
type Storage interface {
	// User directory operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.PrincipalID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Room read operations. GetPlayers returns the roster in join
	// order; it is empty (not an error) for an absent room.
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	GetPlayers(ctx context.Context, code model.RoomCode) ([]model.Player, error)
	GetTransactions(ctx context.Context, code model.RoomCode) ([]model.Transaction, error)
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)

	// MutateRoom runs fn against a transactional view of the room's
	// documents and commits its changes as one atomic unit. fn may be
	// re-run on contention and must not have side effects beyond the
	// transaction. An error from fn aborts the mutation and is
	// returned unchanged.
	MutateRoom(ctx context.Context, code model.RoomCode, fn func(txn *RoomTxn) error) error

	// DeleteRoom removes the room document. The roster and log are
	// left to retention policy; room watchers observe the deletion.
	DeleteRoom(ctx context.Context, code model.RoomCode) error

	// WatchRoom delivers the room document (nil when absent or
	// deleted): an initial snapshot, then one per change. The channel
	// is closed when the feed fails or is cancelled.
	WatchRoom(ctx context.Context, code model.RoomCode) (<-chan *model.Room, CancelFunc, error)

	// WatchPlayers delivers the full roster in join order: an initial
	// snapshot, then one per change. The channel is closed when the
	// feed fails or is cancelled.
	WatchPlayers(ctx context.Context, code model.RoomCode) (<-chan []model.Player, CancelFunc, error)
}
