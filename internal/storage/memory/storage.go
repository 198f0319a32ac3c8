package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users      map[model.UserID]*model.User
	emailIndex map[string]model.UserID
	rooms      map[model.RoomID]*model.Room
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:      make(map[model.UserID]*model.User),
		emailIndex: make(map[string]model.UserID),
		rooms:      make(map[model.RoomID]*model.Room),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[user.ID] = &u
	s.emailIndex[user.Email] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = copyRoom(room)
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) ListRoomsByStatus(ctx context.Context, status model.RoomStatus) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []*model.Room
	for _, room := range s.rooms {
		if room.Status == status {
			rooms = append(rooms, copyRoom(room))
		}
	}
	// Newest first, matching the listing order clients expect
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

// Membership operations

func (s *Storage) AddRoomPlayer(ctx context.Context, id model.RoomID, player model.RoomPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if room.GetPlayer(player.UserID) != nil {
		return nil
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
}

func (s *Storage) RemoveRoomPlayer(ctx context.Context, id model.RoomID, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	for i, p := range room.Players {
		if p.UserID == userID {
			room.Players = append(room.Players[:i], room.Players[i+1:]...)
			return nil
		}
	}
	return model.ErrNotInRoom
}

func (s *Storage) SetPlayerReady(ctx context.Context, id model.RoomID, userID model.UserID, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	player := room.GetPlayer(userID)
	if player == nil {
		return model.ErrNotInRoom
	}
	player.IsReady = ready
	return nil
}

func (s *Storage) SetRoomStatus(ctx context.Context, id model.RoomID, status model.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Status = status
	return nil
}

// copyRoom returns a deep copy so callers never share slices with the store
func copyRoom(room *model.Room) *model.Room {
	cp := *room
	cp.Players = append([]model.RoomPlayer(nil), room.Players...)
	return &cp
}
