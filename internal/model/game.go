package model

import "time"

// Phase represents the sub-state of an active game
type Phase string

const (
	PhaseWaitingRoll Phase = "WAITING_ROLL" // Active player must roll the dice
	PhaseWaitingMove Phase = "WAITING_MOVE" // Active player must move their token
)

// GameState is the ephemeral state of one room's token-movement game.
// It lives only in process memory and is never persisted.
type GameState struct {
	RoomID  RoomID
	Started bool

	// ActivePlayerID is non-empty iff Started is true
	ActivePlayerID UserID

	// Order is the player order snapshotted at game start. Turn advancement
	// walks this snapshot, so roster changes mid-game do not reshuffle turns.
	Order []UserID

	// Positions maps each player to their token position (>= 0).
	// Positions from a prior game in the same room are preserved.
	Positions map[UserID]int

	// LastDice is non-nil iff Phase is WAITING_MOVE
	LastDice *int

	Phase Phase

	StartedAt time.Time
	UpdatedAt time.Time
}

// NewGameState returns the initial not-started state for a room
func NewGameState(roomID RoomID) *GameState {
	return &GameState{
		RoomID:    roomID,
		Positions: make(map[UserID]int),
		Phase:     PhaseWaitingRoll,
	}
}

// NextPlayer returns the player after the given one in the start-time order,
// wrapping around. Returns the first player if the given one is not in the
// order (e.g. removed mid-game).
func (g *GameState) NextPlayer(after UserID) UserID {
	if len(g.Order) == 0 {
		return ""
	}
	for i, id := range g.Order {
		if id == after {
			return g.Order[(i+1)%len(g.Order)]
		}
	}
	return g.Order[0]
}

// Snapshot returns a deep copy safe to hand to other goroutines
func (g *GameState) Snapshot() *GameState {
	cp := *g
	cp.Order = append([]UserID(nil), g.Order...)
	cp.Positions = make(map[UserID]int, len(g.Positions))
	for id, pos := range g.Positions {
		cp.Positions[id] = pos
	}
	if g.LastDice != nil {
		d := *g.LastDice
		cp.LastDice = &d
	}
	return &cp
}
