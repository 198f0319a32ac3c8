package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomStatus represents the lifecycle state of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "WAITING"  // Accepting players
	RoomStatusInGame   RoomStatus = "IN_GAME"  // Game currently active
	RoomStatusFinished RoomStatus = "FINISHED" // No longer joinable
)

// DefaultMaxPlayers is used when a room is created without an explicit limit
const DefaultMaxPlayers = 5

// RoomPlayer represents a user's membership in a room
type RoomPlayer struct {
	UserID   UserID
	Username string
	IsReady  bool
	JoinedAt time.Time
}

// Room is a durable lobby grouping players before and during one game
type Room struct {
	ID         RoomID
	Title      string
	Status     RoomStatus
	MaxPlayers int
	CreatorID  UserID
	// CreatorName is denormalized at creation so DTO mapping does not need
	// a user lookup after the creator leaves the room.
	CreatorName string
	Players     []RoomPlayer
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GetPlayer returns the membership entry for the given user, or nil
func (r *Room) GetPlayer(userID UserID) *RoomPlayer {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return &r.Players[i]
		}
	}
	return nil
}

// IsFull reports whether the room has reached its player limit
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// AllReady reports whether every player has marked themselves ready.
// A room with no players is never ready.
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// PlayerOrder returns the user IDs of all players in join order
func (r *Room) PlayerOrder() []UserID {
	order := make([]UserID, len(r.Players))
	for i, p := range r.Players {
		order[i] = p.UserID
	}
	return order
}
