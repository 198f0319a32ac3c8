package response

import (
	"time"

	"github.com/tokenrace/tokenrace/internal/model"
)

// JSON field names are camelCase to match the websocket protocol, which the
// same clients consume alongside these endpoints.

// User represents a user in API responses
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RoomCreator is the creator projection nested in room responses
type RoomCreator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RoomPlayer is the player-with-username projection in room responses
type RoomPlayer struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room represents a room in API responses and room.state pushes
type Room struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Status     string       `json:"status"`
	MaxPlayers int          `json:"maxPlayers"`
	CreatedAt  time.Time    `json:"createdAt"`
	Creator    RoomCreator  `json:"creator"`
	Players    []RoomPlayer `json:"players"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	players := make([]RoomPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = RoomPlayer{
			UserID:   string(p.UserID),
			Username: p.Username,
			IsReady:  p.IsReady,
			JoinedAt: p.JoinedAt,
		}
	}

	return Room{
		ID:         string(r.ID),
		Title:      r.Title,
		Status:     string(r.Status),
		MaxPlayers: r.MaxPlayers,
		CreatedAt:  r.CreatedAt,
		Creator: RoomCreator{
			ID:       string(r.CreatorID),
			Username: r.CreatorName,
		},
		Players: players,
	}
}

// RoomsFromModel converts a slice of rooms
func RoomsFromModel(rooms []*model.Room) []Room {
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = RoomFromModel(r)
	}
	return out
}

// GameState represents a game snapshot in game.state pushes
type GameState struct {
	Started        bool           `json:"started"`
	ActivePlayerID *string        `json:"activePlayerId"`
	Positions      map[string]int `json:"positions"`
	LastDice       *int           `json:"lastDice"`
	Phase          string         `json:"phase"`
}

// GameStateFromModel converts a model.GameState snapshot
func GameStateFromModel(g *model.GameState) GameState {
	positions := make(map[string]int, len(g.Positions))
	for id, pos := range g.Positions {
		positions[string(id)] = pos
	}

	var active *string
	if g.ActivePlayerID != "" {
		a := string(g.ActivePlayerID)
		active = &a
	}

	return GameState{
		Started:        g.Started,
		ActivePlayerID: active,
		Positions:      positions,
		LastDice:       g.LastDice,
		Phase:          string(g.Phase),
	}
}
