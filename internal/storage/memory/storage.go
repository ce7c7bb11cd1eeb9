package memory

import (
	"context"
	"sync"

	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// MutateRoom holds the write lock across the closure, so mutations on
// the same store are serialized.
type Storage struct {
	mu sync.RWMutex

	users         map[model.PrincipalID]*model.User
	usernameIndex map[string]model.PrincipalID
	rooms         map[model.RoomCode]*roomRecord

	watchMu        sync.Mutex
	roomWatchers   map[model.RoomCode]map[*roomWatcher]struct{}
	playerWatchers map[model.RoomCode]map[*playerWatcher]struct{}
}

type roomRecord struct {
	room    model.Room
	players map[model.PlayerHandle]model.Player
	txlog   []model.Transaction
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:          make(map[model.PrincipalID]*model.User),
		usernameIndex:  make(map[string]model.PrincipalID),
		rooms:          make(map[model.RoomCode]*roomRecord),
		roomWatchers:   make(map[model.RoomCode]map[*roomWatcher]struct{}),
		playerWatchers: make(map[model.RoomCode]map[*playerWatcher]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.PrincipalID] = &copied
	s.usernameIndex[user.Username] = user.PrincipalID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.PrincipalID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// Room operations

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	room := rec.room
	return &room, nil
}

func (s *Storage) GetPlayers(ctx context.Context, code model.RoomCode) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[code]
	if !ok {
		return []model.Player{}, nil
	}
	return rec.roster(), nil
}

func (s *Storage) GetTransactions(ctx context.Context, code model.RoomCode) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rooms[code]
	if !ok {
		return []model.Transaction{}, nil
	}
	txs := make([]model.Transaction, len(rec.txlog))
	copy(txs, rec.txlog)
	return txs, nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Storage) MutateRoom(ctx context.Context, code model.RoomCode, fn func(txn *storage.RoomTxn) error) error {
	s.mu.Lock()

	var txn *storage.RoomTxn
	if rec, ok := s.rooms[code]; ok {
		room := rec.room
		txn = storage.NewRoomTxn(&room, rec.roster())
	} else {
		txn = storage.NewRoomTxn(nil, nil)
	}

	if err := fn(txn); err != nil {
		s.mu.Unlock()
		return err
	}

	rec, ok := s.rooms[code]
	if !ok {
		if txn.Room() == nil {
			// Nothing was created
			s.mu.Unlock()
			return nil
		}
		rec = &roomRecord{players: make(map[model.PlayerHandle]model.Player)}
		s.rooms[code] = rec
	}

	if txn.RoomChanged() {
		rec.room = *txn.Room()
	}
	if txn.PlayersChanged() {
		rec.players = make(map[model.PlayerHandle]model.Player, len(txn.Players()))
		for _, p := range txn.Players() {
			rec.players[p.Handle] = p
		}
	}
	rec.txlog = append(rec.txlog, txn.Appended()...)

	// Notify while still holding the lock so watchers observe
	// snapshots in commit order.
	room := rec.room
	if txn.RoomChanged() {
		s.notifyRoom(code, &room)
	}
	if txn.PlayersChanged() {
		s.notifyPlayers(code, rec.roster())
	}
	s.mu.Unlock()
	return nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	delete(s.rooms, code)
	s.notifyRoom(code, nil)
	s.mu.Unlock()
	return nil
}

func (r *roomRecord) roster() []model.Player {
	players := make([]model.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	model.SortPlayersByJoinTime(players)
	return players
}
