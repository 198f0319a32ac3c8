package game

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tokenrace/tokenrace/internal/dependencies/clock"
	"github.com/tokenrace/tokenrace/internal/dependencies/random"
	"github.com/tokenrace/tokenrace/internal/model"
)

// diceSides is the number of faces on the dice
const diceSides = 6

// MoveResult describes a completed token move
type MoveResult struct {
	PlayerID     model.UserID
	Position     int
	Steps        int
	NextPlayerID model.UserID
}

// Service owns the per-room game states. Each room's transitions are
// serialized on that room's own mutex, so two concurrently arriving turn
// actions can never both be accepted as the active player's move.
type Service struct {
	mu     sync.Mutex
	rooms  map[model.RoomID]*roomGame
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

type roomGame struct {
	mu         sync.Mutex
	state      *model.GameState
	lastActive time.Time
}

// New creates a new game service
func New(clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		rooms:  make(map[model.RoomID]*roomGame),
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "game")),
	}
}

// getOrCreate returns the room's game entry, creating it lazily on the
// first game action for that room.
func (s *Service) getOrCreate(roomID model.RoomID) *roomGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	rg, ok := s.rooms[roomID]
	if !ok {
		rg = &roomGame{
			state:      model.NewGameState(roomID),
			lastActive: s.clock.Now(),
		}
		s.rooms[roomID] = rg
	}
	return rg
}

// Start begins the game for a room. Preconditions: the game is not already
// started, the room seats at least one player, and every player is ready.
// Single-player games are allowed; a lobby UI would gate starting on two
// or more players, the state machine does not.
//
// Player order is snapshotted into the game state here, so roster changes
// after start do not alter turn order. Positions surviving from a prior
// game in the same room are preserved.
func (s *Service) Start(room *model.Room, actor model.UserID) (*model.GameState, error) {
	rg := s.getOrCreate(room.ID)
	rg.mu.Lock()
	defer rg.mu.Unlock()

	if rg.state.Started {
		return nil, model.ErrGameAlreadyStarted
	}
	if len(room.Players) == 0 || !room.AllReady() {
		return nil, model.ErrNotAllReady
	}

	now := s.clock.Now()
	st := rg.state
	st.Started = true
	st.Order = room.PlayerOrder()
	st.ActivePlayerID = st.Order[0]
	st.Phase = model.PhaseWaitingRoll
	st.LastDice = nil
	st.StartedAt = now
	st.UpdatedAt = now
	for _, id := range st.Order {
		if _, ok := st.Positions[id]; !ok {
			st.Positions[id] = 0
		}
	}
	rg.lastActive = now

	s.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.String("actor", string(actor)),
		slog.Int("players", len(st.Order)),
	)

	return st.Snapshot(), nil
}

// Roll draws the dice for the active player. Preconditions: game started,
// the actor is the active player, and the phase is WAITING_ROLL.
func (s *Service) Roll(roomID model.RoomID, actor model.UserID) (int, *model.GameState, error) {
	rg := s.getOrCreate(roomID)
	rg.mu.Lock()
	defer rg.mu.Unlock()

	st := rg.state
	if !st.Started {
		return 0, nil, model.ErrGameNotStarted
	}
	if st.ActivePlayerID != actor {
		return 0, nil, model.ErrNotYourTurn
	}
	if st.Phase != model.PhaseWaitingRoll {
		return 0, nil, model.ErrWrongPhase
	}

	value := 1 + s.random.Intn(diceSides)
	st.LastDice = &value
	st.Phase = model.PhaseWaitingMove
	st.UpdatedAt = s.clock.Now()
	rg.lastActive = st.UpdatedAt

	return value, st.Snapshot(), nil
}

// Move advances the active player's token. Preconditions: game started,
// the actor is the active player, phase is WAITING_MOVE, and steps exactly
// equals the last dice roll. On success the turn passes to the next player
// in the start-time order, wrapping around.
func (s *Service) Move(roomID model.RoomID, actor model.UserID, steps int) (*MoveResult, *model.GameState, error) {
	rg := s.getOrCreate(roomID)
	rg.mu.Lock()
	defer rg.mu.Unlock()

	st := rg.state
	if !st.Started {
		return nil, nil, model.ErrGameNotStarted
	}
	if st.ActivePlayerID != actor {
		return nil, nil, model.ErrNotYourTurn
	}
	if st.Phase != model.PhaseWaitingMove || st.LastDice == nil {
		return nil, nil, model.ErrRollRequired
	}
	if steps < 1 || steps > diceSides {
		return nil, nil, model.ErrInvalidSteps
	}
	if steps != *st.LastDice {
		return nil, nil, model.ErrStepsMismatch
	}

	st.Positions[actor] += steps
	next := st.NextPlayer(actor)
	st.ActivePlayerID = next
	st.LastDice = nil
	st.Phase = model.PhaseWaitingRoll
	st.UpdatedAt = s.clock.Now()
	rg.lastActive = st.UpdatedAt

	result := &MoveResult{
		PlayerID:     actor,
		Position:     st.Positions[actor],
		Steps:        steps,
		NextPlayerID: next,
	}
	return result, st.Snapshot(), nil
}

// State returns a snapshot of a room's game state, or nil if the room has
// no game state yet.
func (s *Service) State(roomID model.RoomID) *model.GameState {
	s.mu.Lock()
	rg, ok := s.rooms[roomID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	rg.mu.Lock()
	defer rg.mu.Unlock()
	return rg.state.Snapshot()
}

// Evict discards a room's game state. Lifecycle hook for rooms that reach
// FINISHED or are deleted.
func (s *Service) Evict(roomID model.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; ok {
		delete(s.rooms, roomID)
		s.logger.Info("game state evicted", slog.String("room_id", string(roomID)))
	}
}

// EvictIdle discards game states with no activity for longer than maxIdle,
// bounding memory growth under long-running multi-room usage. Returns the
// number of rooms evicted.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for roomID, rg := range s.rooms {
		rg.mu.Lock()
		idle := rg.lastActive.Before(cutoff)
		rg.mu.Unlock()
		if idle {
			delete(s.rooms, roomID)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("idle game states evicted", slog.Int("count", evicted))
	}
	return evicted
}
