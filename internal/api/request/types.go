package request

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Title      string `json:"title"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

// ReadyRequest is the request body for setting the ready flag
type ReadyRequest struct {
	Ready bool `json:"ready"`
}
