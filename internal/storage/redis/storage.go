package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Room mutations run as optimistic transactions (WATCH on the room and
// roster keys, committed via MULTI/EXEC) with bounded retries, and
// change notification rides pub/sub channels per room.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, userKey(user.PrincipalID), data, s.cfg.UserTTL)
	pipe.Set(ctx, usernameIndexKey(user.Username), string(user.PrincipalID), s.cfg.UserTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.PrincipalID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return s.GetUser(ctx, model.PrincipalID(id))
}

// Room read operations

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) GetPlayers(ctx context.Context, code model.RoomCode) ([]model.Player, error) {
	fields, err := s.client.HGetAll(ctx, playersKey(code)).Result()
	if err != nil {
		return nil, err
	}
	return decodeRoster(fields)
}

func (s *Storage) GetTransactions(ctx context.Context, code model.RoomCode) ([]model.Transaction, error) {
	entries, err := s.client.LRange(ctx, txlogKey(code), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	txs := make([]model.Transaction, 0, len(entries))
	for _, entry := range entries {
		var tx model.Transaction
		if err := json.Unmarshal([]byte(entry), &tx); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	exists, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// MutateRoom runs fn inside an optimistic transaction over the room
// and roster keys. On contention (another client writing the watched
// keys between read and commit) the whole read-fn-commit cycle is
// retried, so fn must be free of side effects.
func (s *Storage) MutateRoom(ctx context.Context, code model.RoomCode, fn func(txn *storage.RoomTxn) error) error {
	rKey := roomKey(code)
	pKey := playersKey(code)

	var committed *storage.RoomTxn

	txf := func(tx *redis.Tx) error {
		room, err := getRoomTx(ctx, tx, code)
		if err != nil {
			return err
		}
		fields, err := tx.HGetAll(ctx, pKey).Result()
		if err != nil {
			return err
		}
		players, err := decodeRoster(fields)
		if err != nil {
			return err
		}

		txn := storage.NewRoomTxn(room, players)
		if err := fn(txn); err != nil {
			return err
		}

		if !txn.RoomChanged() && !txn.PlayersChanged() && len(txn.Appended()) == 0 {
			committed = txn
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if txn.RoomChanged() {
				data, err := json.Marshal(txn.Room())
				if err != nil {
					return err
				}
				pipe.Set(ctx, rKey, data, s.cfg.RoomTTL)
			}
			if txn.PlayersChanged() {
				pipe.Del(ctx, pKey)
				roster := txn.Players()
				if len(roster) > 0 {
					fields := make(map[string]interface{}, len(roster))
					for _, p := range roster {
						data, err := json.Marshal(p)
						if err != nil {
							return err
						}
						fields[string(p.Handle)] = data
					}
					pipe.HSet(ctx, pKey, fields)
					pipe.Expire(ctx, pKey, s.cfg.RoomTTL)
				}
			}
			if appended := txn.Appended(); len(appended) > 0 {
				for _, entry := range appended {
					data, err := json.Marshal(entry)
					if err != nil {
						return err
					}
					pipe.RPush(ctx, txlogKey(code), data)
				}
				pipe.Expire(ctx, txlogKey(code), s.cfg.RoomTTL)
			}
			return nil
		})
		if err != nil {
			return err
		}

		committed = txn
		return nil
	}

	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, rKey, pKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}

		// Commit succeeded; wake the change feeds
		if committed.RoomChanged() {
			s.client.Publish(ctx, roomChannel(code), changeUpdated)
		}
		if committed.PlayersChanged() {
			s.client.Publish(ctx, playersChannel(code), changeUpdated)
		}
		return nil
	}

	return fmt.Errorf("room %s: transaction retries exhausted", code)
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	if err := s.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return err
	}
	s.client.Publish(ctx, roomChannel(code), changeDeleted)
	return nil
}

// getRoomTx reads the room document inside a WATCH transaction,
// mapping absence to nil rather than an error
func getRoomTx(ctx context.Context, tx *redis.Tx, code model.RoomCode) (*model.Room, error) {
	data, err := tx.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// decodeRoster converts a roster hash into join-ordered players
func decodeRoster(fields map[string]string) ([]model.Player, error) {
	players := make([]model.Player, 0, len(fields))
	for _, raw := range fields {
		var p model.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	model.SortPlayersByJoinTime(players)
	return players, nil
}
