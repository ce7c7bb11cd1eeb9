package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// OnChange receives merged room snapshots. A nil snapshot means the
// room is gone: deleted, never existed, or the room feed failed.
type OnChange func(snapshot *model.RoomSnapshot)

// Service merges the room and roster change feeds of the storage layer
// into a single snapshot stream per subscriber
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new watch Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// subscription tracks one subscriber. The mutex serializes callback
// invocations; cancelled is only flipped while holding it, so once
// Cancel returns no further callbacks run.
type subscription struct {
	mu        sync.Mutex
	cancelled bool
	lastNil   bool
}

// emit delivers a snapshot unless the subscription has been cancelled.
// Consecutive nil deliveries collapse to one; a live snapshot re-arms
// the nil notification.
func (sub *subscription) emit(onChange OnChange, snapshot *model.RoomSnapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.cancelled {
		return
	}
	if snapshot == nil {
		if sub.lastNil {
			return
		}
		sub.lastNil = true
	} else {
		sub.lastNil = false
	}
	onChange(snapshot)
}

// Subscribe watches a room and invokes onChange with a merged snapshot
// for the initial state and after every subsequent change to the room
// or its roster. Deletion of the room is reported as onChange(nil).
// The returned cancel function is idempotent and safe to call
// concurrently; no callbacks run after it returns.
func (s *Service) Subscribe(ctx context.Context, code model.RoomCode, onChange OnChange) (storage.CancelFunc, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}
	if onChange == nil {
		return nil, fmt.Errorf("%w: change callback is required", model.ErrInvalidArgument)
	}

	roomCh, cancelRoom, err := s.storage.WatchRoom(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to watch room: %w", err)
	}
	playersCh, cancelPlayers, err := s.storage.WatchPlayers(ctx, code)
	if err != nil {
		cancelRoom()
		return nil, fmt.Errorf("failed to watch players: %w", err)
	}

	sub := &subscription{}

	go s.runRoomFeed(ctx, code, roomCh, sub, onChange)
	go s.runPlayersFeed(ctx, code, playersCh, sub, onChange)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelRoom()
			cancelPlayers()
			sub.mu.Lock()
			sub.cancelled = true
			sub.mu.Unlock()
		})
	}
	return cancel, nil
}

// runRoomFeed drives deliveries from the room document feed. The room
// itself comes off the feed; the roster is re-read to complete the
// snapshot. Feed failure is surfaced to the subscriber as a nil
// snapshot, same as deletion.
func (s *Service) runRoomFeed(ctx context.Context, code model.RoomCode, roomCh <-chan *model.Room, sub *subscription, onChange OnChange) {
	for room := range roomCh {
		if room == nil {
			sub.emit(onChange, nil)
			continue
		}

		players, err := s.storage.GetPlayers(ctx, code)
		if err != nil {
			s.logger.Error("failed to read roster for room update", "code", code, "error", err)
			sub.emit(onChange, nil)
			continue
		}

		sub.emit(onChange, &model.RoomSnapshot{Room: *room, Players: players})
	}

	// Closed channel means the feed died. Cancellation also closes it,
	// but emit is a no-op after cancel so the subscriber never sees
	// this nil.
	sub.emit(onChange, nil)
}

// runPlayersFeed drives deliveries from the roster feed. The room
// document is re-read to complete the snapshot; errors there are
// logged and the update dropped, since the room feed owns absence
// reporting.
func (s *Service) runPlayersFeed(ctx context.Context, code model.RoomCode, playersCh <-chan []model.Player, sub *subscription, onChange OnChange) {
	for players := range playersCh {
		if len(players) == 0 {
			continue
		}

		room, err := s.storage.GetRoom(ctx, code)
		if err != nil {
			s.logger.Warn("failed to read room for roster update", "code", code, "error", err)
			continue
		}

		sub.emit(onChange, &model.RoomSnapshot{Room: *room, Players: players})
	}

	s.logger.Debug("roster feed closed", "code", code)
}
