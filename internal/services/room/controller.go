package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bankroom/internal/dependencies/clock"
	"bankroom/internal/dependencies/random"
	"bankroom/internal/model"
	"bankroom/internal/services/identity"
	"bankroom/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the character set room codes are drawn from
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxCodeAttempts bounds regeneration on code collisions. The code
	// space is 36^6 so a handful of draws is plenty.
	maxCodeAttempts = 8
)

// errCodeTaken aborts the create mutation so the caller can draw a
// fresh code.
var errCodeTaken = errors.New("room code already taken")

// Controller manages room lifecycle: creation, membership and state
// transitions
type Controller struct {
	storage   storage.Storage
	directory identity.Directory
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// NewController creates a new room Controller
func NewController(storage storage.Storage, directory identity.Directory, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage:   storage,
		directory: directory,
		clock:     clock,
		random:    random,
		logger:    logger,
	}
}

// CreateRoom creates a room with the given principal as host. The host
// is seeded as the only member with the starting balance, and the room
// code is regenerated on collision inside the atomic write.
func (c *Controller) CreateRoom(ctx context.Context, caller model.PrincipalID, hostID model.PrincipalID) (*model.RoomSnapshot, error) {
	if caller == "" {
		return nil, model.ErrUnauthenticated
	}
	if hostID == "" {
		return nil, fmt.Errorf("%w: host id is required", model.ErrInvalidArgument)
	}

	displayName, err := c.directory.ResolveDisplayName(ctx, hostID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	host := model.Player{
		Handle:      model.NewPlayerHandle(),
		PrincipalID: hostID,
		DisplayName: displayName,
		IsHost:      true,
		Balance:     model.DefaultStartingBalance,
		JoinedAt:    now,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))

		err := c.storage.MutateRoom(ctx, code, func(txn *storage.RoomTxn) error {
			if txn.Room() != nil {
				return errCodeTaken
			}
			txn.SetRoom(model.Room{
				Code:        code,
				Status:      model.RoomStatusWaiting,
				HostID:      hostID,
				PlayerCount: 1,
				MaxPlayers:  model.DefaultMaxPlayers,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			txn.PutPlayer(host)
			return nil
		})
		if errors.Is(err, errCodeTaken) {
			c.logger.Warn("room code collision, regenerating", "code", code)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		c.logger.Info("room created", "code", code, "host", hostID)
		return c.GetRoom(ctx, code)
	}

	return nil, fmt.Errorf("could not allocate a unique room code after %d attempts", maxCodeAttempts)
}

// GetRoom returns the merged view of a room and its roster
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.RoomSnapshot, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	players, err := c.storage.GetPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	return &model.RoomSnapshot{
		Room:    *room,
		Players: players,
	}, nil
}

// JoinRoom adds a principal to a waiting room with the starting
// balance. Joining fails if the room is absent, already started, full,
// or the principal is already a member.
func (c *Controller) JoinRoom(ctx context.Context, caller model.PrincipalID, code model.RoomCode, principal model.PrincipalID) error {
	if caller == "" {
		return model.ErrUnauthenticated
	}
	if code == "" {
		return fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}
	if principal == "" {
		return fmt.Errorf("%w: principal id is required", model.ErrInvalidArgument)
	}

	// Existence check before resolving the name so an unknown room
	// reports as such rather than as a directory failure.
	if _, err := c.storage.GetRoom(ctx, code); err != nil {
		return err
	}

	displayName, err := c.directory.ResolveDisplayName(ctx, principal)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	err = c.storage.MutateRoom(ctx, code, func(txn *storage.RoomTxn) error {
		room := txn.Room()
		if room == nil {
			return model.ErrRoomNotFound
		}
		if room.Status != model.RoomStatusWaiting {
			return model.ErrRoomNotWaiting
		}
		if room.IsFull() {
			return model.ErrRoomFull
		}
		if _, ok := txn.PlayerByPrincipal(principal); ok {
			return model.ErrAlreadyInRoom
		}

		txn.PutPlayer(model.Player{
			Handle:      model.NewPlayerHandle(),
			PrincipalID: principal,
			DisplayName: displayName,
			IsHost:      false,
			Balance:     model.DefaultStartingBalance,
			JoinedAt:    now,
		})
		room.PlayerCount++
		room.UpdatedAt = now
		txn.SetRoom(*room)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("player joined room", "code", code, "principal", principal)
	return nil
}

// StartRoom transitions a waiting room to in progress. Only the host
// may start a room, and only once.
func (c *Controller) StartRoom(ctx context.Context, caller model.PrincipalID, code model.RoomCode) error {
	if caller == "" {
		return model.ErrUnauthenticated
	}
	if code == "" {
		return fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}

	now := c.clock.Now()
	err := c.storage.MutateRoom(ctx, code, func(txn *storage.RoomTxn) error {
		room := txn.Room()
		if room == nil {
			return model.ErrRoomNotFound
		}
		player, ok := txn.PlayerByPrincipal(caller)
		if !ok || !player.IsHost {
			return model.ErrNotHost
		}
		if room.Status != model.RoomStatusWaiting {
			return model.ErrRoomStarted
		}

		room.Status = model.RoomStatusInProgress
		room.StartedAt = &now
		room.UpdatedAt = now
		txn.SetRoom(*room)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("room started", "code", code, "host", caller)
	return nil
}

// LeaveRoom removes a principal from a room and decrements the member
// count, never below zero. A principal that is not a member fails with
// the player-not-found error, whether or not the room exists.
func (c *Controller) LeaveRoom(ctx context.Context, caller model.PrincipalID, code model.RoomCode, principal model.PrincipalID) error {
	if caller == "" {
		return model.ErrUnauthenticated
	}
	if code == "" {
		return fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}
	if principal == "" {
		return fmt.Errorf("%w: principal id is required", model.ErrInvalidArgument)
	}

	err := c.storage.MutateRoom(ctx, code, func(txn *storage.RoomTxn) error {
		room := txn.Room()
		if room == nil {
			return model.ErrPlayerNotFound
		}
		player, ok := txn.PlayerByPrincipal(principal)
		if !ok {
			return model.ErrPlayerNotFound
		}

		txn.RemovePlayer(player.Handle)
		if room.PlayerCount > 0 {
			room.PlayerCount--
		}
		room.UpdatedAt = c.clock.Now()
		txn.SetRoom(*room)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("player left room", "code", code, "principal", principal)
	return nil
}

// DeleteRoom removes a room entirely. Only the host may delete it.
func (c *Controller) DeleteRoom(ctx context.Context, caller model.PrincipalID, code model.RoomCode) error {
	if caller == "" {
		return model.ErrUnauthenticated
	}
	if code == "" {
		return fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}

	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return err
	}
	if room.HostID != caller {
		return model.ErrNotHost
	}

	if err := c.storage.DeleteRoom(ctx, code); err != nil {
		return err
	}

	c.logger.Info("room deleted", "code", code, "host", caller)
	return nil
}
