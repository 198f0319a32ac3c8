package ws

import (
	"errors"

	"github.com/tokenrace/tokenrace/internal/model"
)

// codeForError maps domain errors onto the closed protocol error codes.
// Infrastructure failures (store unavailable) fall through to INTERNAL so
// they surface as a domain-shaped event instead of killing the connection.
func codeForError(err error) ErrorCode {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return CodeRoomNotFound
	case errors.Is(err, model.ErrRoomFull):
		return CodeRoomFull
	case errors.Is(err, model.ErrRoomNotJoinable):
		return CodeRoomNotJoinable
	case errors.Is(err, model.ErrNotInRoom):
		return CodeNotInRoom
	case errors.Is(err, model.ErrNotAllReady):
		return CodeNotAllReady
	case errors.Is(err, model.ErrGameAlreadyStarted):
		return CodeAlreadyStarted
	case errors.Is(err, model.ErrGameNotStarted):
		return CodeGameNotStarted
	case errors.Is(err, model.ErrNotYourTurn):
		return CodeNotYourTurn
	case errors.Is(err, model.ErrWrongPhase):
		return CodeWrongPhase
	case errors.Is(err, model.ErrRollRequired):
		return CodeRollDiceFirst
	case errors.Is(err, model.ErrInvalidSteps):
		return CodeInvalidSteps
	case errors.Is(err, model.ErrStepsMismatch):
		return CodeStepsMismatch
	default:
		return CodeInternal
	}
}
