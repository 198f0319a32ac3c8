package storage

import (
	"context"

	"github.com/tokenrace/tokenrace/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	ListRoomsByStatus(ctx context.Context, status model.RoomStatus) ([]*model.Room, error)

	// Membership operations.
	//
	// AddRoomPlayer must atomically check the room's status and capacity
	// against concurrent joiners racing for the last seat: a race-lost join
	// surfaces as model.ErrRoomFull, never as an oversubscribed room.
	// Adding a player who is already a member is a no-op.
	AddRoomPlayer(ctx context.Context, id model.RoomID, player model.RoomPlayer) error
	RemoveRoomPlayer(ctx context.Context, id model.RoomID, userID model.UserID) error
	SetPlayerReady(ctx context.Context, id model.RoomID, userID model.UserID, ready bool) error
	SetRoomStatus(ctx context.Context, id model.RoomID, status model.RoomStatus) error
}
