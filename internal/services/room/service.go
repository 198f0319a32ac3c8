package room

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tokenrace/tokenrace/internal/dependencies/clock"
	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/storage"
)

// Service manages durable room state and membership
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new room service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "room")),
	}
}

// Create creates a new room with the creator automatically joined
func (s *Service) Create(ctx context.Context, creatorID model.UserID, title string, maxPlayers int) (*model.Room, error) {
	creator, err := s.storage.GetUser(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	if maxPlayers <= 0 {
		maxPlayers = model.DefaultMaxPlayers
	}

	now := s.clock.Now()
	room := &model.Room{
		ID:          model.RoomID("r_" + uuid.NewString()),
		Title:       title,
		Status:      model.RoomStatusWaiting,
		MaxPlayers:  maxPlayers,
		CreatorID:   creatorID,
		CreatorName: creator.Username,
		Players: []model.RoomPlayer{
			{
				UserID:   creatorID,
				Username: creator.Username,
				JoinedAt: now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("creator_id", string(creatorID)),
		slog.Int("max_players", maxPlayers),
	)

	return room, nil
}

// List returns all rooms currently accepting players, newest first
func (s *Service) List(ctx context.Context) ([]*model.Room, error) {
	return s.storage.ListRoomsByStatus(ctx, model.RoomStatusWaiting)
}

// Get retrieves a room by ID
func (s *Service) Get(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return s.storage.GetRoom(ctx, id)
}

// Join adds a user to a room. Joining a room the user is already a member
// of is a no-op. The capacity check is atomic against concurrent joiners;
// a race-lost join surfaces as model.ErrRoomFull.
func (s *Service) Join(ctx context.Context, id model.RoomID, userID model.UserID) (*model.Room, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	player := model.RoomPlayer{
		UserID:   userID,
		Username: user.Username,
		JoinedAt: s.clock.Now(),
	}

	if err := s.storage.AddRoomPlayer(ctx, id, player); err != nil {
		return nil, err
	}

	return s.storage.GetRoom(ctx, id)
}

// Leave removes a user's membership from a room
func (s *Service) Leave(ctx context.Context, id model.RoomID, userID model.UserID) (*model.Room, error) {
	if err := s.storage.RemoveRoomPlayer(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.storage.GetRoom(ctx, id)
}

// SetReady updates a player's ready flag
func (s *Service) SetReady(ctx context.Context, id model.RoomID, userID model.UserID, ready bool) (*model.Room, error) {
	if err := s.storage.SetPlayerReady(ctx, id, userID, ready); err != nil {
		return nil, err
	}
	return s.storage.GetRoom(ctx, id)
}

// SetStatus transitions a room's lifecycle status. The realtime core calls
// this when a game starts (WAITING -> IN_GAME); it is also the hook for
// wiring a FINISHED transition when a win condition is added.
func (s *Service) SetStatus(ctx context.Context, id model.RoomID, status model.RoomStatus) error {
	if err := s.storage.SetRoomStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("room status changed",
		slog.String("room_id", string(id)),
		slog.String("status", string(status)),
	)
	return nil
}
