package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/storage"
)

// maxTxRetries bounds optimistic-lock retries on contended room mutations
const maxTxRetries = 5

// Storage is a Redis-backed implementation of the storage interface
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

	// Pipeline for atomic save + email index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.Set(ctx, emailIndexKey(user.Email), string(user.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
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

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	idStr, err := s.client.Get(ctx, emailIndexKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(idStr))
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, roomKey(room.ID), data, 0)
	pipe.SAdd(ctx, statusIndexKey(room.Status), string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
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

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, statusIndexKey(room.Status), string(id))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRoomsByStatus(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	ids, err := s.client.SMembers(ctx, statusIndexKey(status)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = roomKey(model.RoomID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var rooms []*model.Room
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Expired or deleted room still referenced by the index
			continue
		}
		var room model.Room
		if err := json.Unmarshal([]byte(str), &room); err != nil {
			return nil, err
		}
		if room.Status != status {
			continue
		}
		rooms = append(rooms, &room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

// Membership operations

func (s *Storage) AddRoomPlayer(ctx context.Context, id model.RoomID, player model.RoomPlayer) error {
	return s.mutateRoom(ctx, id, func(room *model.Room) error {
		if room.GetPlayer(player.UserID) != nil {
			return errNoChange
		}
		if room.Status != model.RoomStatusWaiting {
			return model.ErrRoomNotJoinable
		}
		if room.IsFull() {
			return model.ErrRoomFull
		}
		room.Players = append(room.Players, player)
		room.UpdatedAt = player.JoinedAt
		return nil
	})
}

func (s *Storage) RemoveRoomPlayer(ctx context.Context, id model.RoomID, userID model.UserID) error {
	return s.mutateRoom(ctx, id, func(room *model.Room) error {
		for i, p := range room.Players {
			if p.UserID == userID {
				room.Players = append(room.Players[:i], room.Players[i+1:]...)
				return nil
			}
		}
		return model.ErrNotInRoom
	})
}

func (s *Storage) SetPlayerReady(ctx context.Context, id model.RoomID, userID model.UserID, ready bool) error {
	return s.mutateRoom(ctx, id, func(room *model.Room) error {
		player := room.GetPlayer(userID)
		if player == nil {
			return model.ErrNotInRoom
		}
		player.IsReady = ready
		return nil
	})
}

func (s *Storage) SetRoomStatus(ctx context.Context, id model.RoomID, status model.RoomStatus) error {
	return s.mutateRoom(ctx, id, func(room *model.Room) error {
		if room.Status == status {
			return errNoChange
		}
		room.Status = status
		return nil
	})
}

// errNoChange aborts a mutation without error when the write is a no-op
var errNoChange = errors.New("no change")

// mutateRoom applies a read-modify-write to a room under an optimistic WATCH
// transaction, so concurrent mutations (two joiners racing for the last seat)
// serialize instead of clobbering each other.
func (s *Storage) mutateRoom(ctx context.Context, id model.RoomID, mutate func(*model.Room) error) error {
	key := roomKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrRoomNotFound
			}
			return err
		}

		var room model.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}

		oldStatus := room.Status
		if err := mutate(&room); err != nil {
			return err
		}

		updated, err := json.Marshal(&room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			ttl := time.Duration(0)
			if room.Status == model.RoomStatusFinished {
				ttl = s.cfg.FinishedRoomTTL
			}
			pipe.Set(ctx, key, updated, ttl)
			if room.Status != oldStatus {
				pipe.SRem(ctx, statusIndexKey(oldStatus), string(id))
				pipe.SAdd(ctx, statusIndexKey(room.Status), string(id))
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	return redis.TxFailedErr
}
