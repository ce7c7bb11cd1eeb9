package redis

import (
	"context"
	"errors"
	"sync"

	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// Pub/sub payloads. Watchers re-read on any message, so the payload is
// informational only.
const (
	changeUpdated = "updated"
	changeDeleted = "deleted"
)

const watchBufferSize = 16

// WatchRoom subscribes to the room's change channel and delivers the
// room document (nil when absent) on every change, starting with an
// initial snapshot. The returned channel closes on transport failure
// or cancellation.
func (s *Storage) WatchRoom(ctx context.Context, code model.RoomCode) (<-chan *model.Room, storage.CancelFunc, error) {
	pubsub := s.client.Subscribe(ctx, roomChannel(code))
	// Force the subscription to be established before the initial
	// read, so no change between them is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	initial, err := s.getRoomOrNil(ctx, code)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan *model.Room, watchBufferSize)
	out <- initial

	go func() {
		defer close(out)
		for range pubsub.Channel() {
			room, err := s.getRoomOrNil(context.Background(), code)
			if err != nil {
				// Feed failure surfaces as a closed channel
				return
			}
			sendCoalescing(out, room)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}

// WatchPlayers subscribes to the roster's change channel and delivers
// the full roster on every change, starting with an initial snapshot.
func (s *Storage) WatchPlayers(ctx context.Context, code model.RoomCode) (<-chan []model.Player, storage.CancelFunc, error) {
	pubsub := s.client.Subscribe(ctx, playersChannel(code))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	initial, err := s.GetPlayers(ctx, code)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []model.Player, watchBufferSize)
	out <- initial

	go func() {
		defer close(out)
		for range pubsub.Channel() {
			players, err := s.GetPlayers(context.Background(), code)
			if err != nil {
				return
			}
			sendCoalescing(out, players)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}

// sendCoalescing delivers a snapshot without ever blocking: if the
// consumer has fallen behind, the oldest buffered snapshot is dropped
// in favour of the newest.
func sendCoalescing[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (s *Storage) getRoomOrNil(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}
