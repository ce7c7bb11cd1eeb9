package memory

import (
	"context"
	"sync"

	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// Buffer per watcher. Deliveries are full snapshots, so when a slow
// consumer falls behind the oldest buffered snapshot is dropped in
// favour of the newest.
const watchBufferSize = 16

type roomWatcher struct {
	ch chan *model.Room
}

type playerWatcher struct {
	ch chan []model.Player
}

func (s *Storage) WatchRoom(ctx context.Context, code model.RoomCode) (<-chan *model.Room, storage.CancelFunc, error) {
	w := &roomWatcher{ch: make(chan *model.Room, watchBufferSize)}

	// Initial snapshot before registration so the first delivery is
	// never lost to the coalescing buffer.
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		room = nil
	}
	w.ch <- room

	s.watchMu.Lock()
	if s.roomWatchers[code] == nil {
		s.roomWatchers[code] = make(map[*roomWatcher]struct{})
	}
	s.roomWatchers[code][w] = struct{}{}
	s.watchMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.roomWatchers[code], w)
			s.watchMu.Unlock()
			close(w.ch)
		})
	}
	return w.ch, cancel, nil
}

func (s *Storage) WatchPlayers(ctx context.Context, code model.RoomCode) (<-chan []model.Player, storage.CancelFunc, error) {
	w := &playerWatcher{ch: make(chan []model.Player, watchBufferSize)}

	players, err := s.GetPlayers(ctx, code)
	if err != nil {
		players = []model.Player{}
	}
	w.ch <- players

	s.watchMu.Lock()
	if s.playerWatchers[code] == nil {
		s.playerWatchers[code] = make(map[*playerWatcher]struct{})
	}
	s.playerWatchers[code][w] = struct{}{}
	s.watchMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.playerWatchers[code], w)
			s.watchMu.Unlock()
			close(w.ch)
		})
	}
	return w.ch, cancel, nil
}

func (s *Storage) notifyRoom(code model.RoomCode, room *model.Room) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for w := range s.roomWatchers[code] {
		var snapshot *model.Room
		if room != nil {
			copied := *room
			snapshot = &copied
		}
		for {
			select {
			case w.ch <- snapshot:
			default:
				// Drop the oldest buffered snapshot and retry
				select {
				case <-w.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

func (s *Storage) notifyPlayers(code model.RoomCode, players []model.Player) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for w := range s.playerWatchers[code] {
		snapshot := make([]model.Player, len(players))
		copy(snapshot, players)
		for {
			select {
			case w.ch <- snapshot:
			default:
				select {
				case <-w.ch:
				default:
				}
				continue
			}
			break
		}
	}
}
