package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotJoinable = errors.New("room is not joinable")
	ErrNotInRoom       = errors.New("user is not in room")

	// Game errors
	ErrGameNotStarted     = errors.New("game has not started")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrNotAllReady        = errors.New("not all players are ready")
	ErrNotYourTurn        = errors.New("not this player's turn")
	ErrWrongPhase         = errors.New("action not valid in current phase")
	ErrRollRequired       = errors.New("roll the dice before moving")
	ErrInvalidSteps       = errors.New("steps must be between 1 and 6")
	ErrStepsMismatch      = errors.New("steps must equal the last dice roll")
)
