package ws

import (
	"encoding/json"

	"github.com/tokenrace/tokenrace/internal/api/response"
)

// MessageType identifies a protocol message kind
type MessageType string

// Inbound message kinds (client -> server)
const (
	MessageTypePing      MessageType = "ping"
	MessageTypeRoomJoin  MessageType = "room.join"
	MessageTypeRoomLeave MessageType = "room.leave"
	MessageTypeRoomReady MessageType = "room.ready"
	MessageTypeGameStart MessageType = "game.start"
	MessageTypeGameRoll  MessageType = "game.roll_dice"
	MessageTypeGameMove  MessageType = "game.move"
)

// Outbound message kinds (server -> client)
const (
	MessageTypeConnected    MessageType = "connected"
	MessageTypePong         MessageType = "pong"
	MessageTypeRoomState    MessageType = "room.state"
	MessageTypePlayerJoined MessageType = "room.player_joined"
	MessageTypePlayerLeft   MessageType = "room.player_left"
	MessageTypeGameStarted  MessageType = "game.started"
	MessageTypeDiceRolled   MessageType = "game.dice_rolled"
	MessageTypeTokenMoved   MessageType = "game.token_moved"
	MessageTypeTurnChanged  MessageType = "game.turn_changed"
	MessageTypeGameState    MessageType = "game.state"
	MessageTypeError        MessageType = "error"
)

// Envelope is the tagged wire format for inbound messages. Payload is
// decoded per message kind.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is the tagged wire format for outbound messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// Inbound payloads

// JoinPayload is the payload for room.join
type JoinPayload struct {
	RoomID string `json:"roomId"`
}

// ReadyPayload is the payload for room.ready
type ReadyPayload struct {
	Ready bool `json:"ready"`
}

// MovePayload is the payload for game.move. Steps is decoded as a float so
// a non-integer count is rejected as an invalid step count rather than a
// framing error.
type MovePayload struct {
	Steps float64 `json:"steps"`
}

// Outbound payloads

// ConnectedPayload acknowledges a successful handshake
type ConnectedPayload struct {
	UserID string `json:"userId"`
}

// PlayerEventPayload is the payload for room.player_joined/player_left
type PlayerEventPayload struct {
	UserID string `json:"userId"`
}

// GameStartedPayload is the payload for game.started
type GameStartedPayload struct {
	ActivePlayerID string `json:"activePlayerId"`
}

// DiceRolledPayload is the payload for game.dice_rolled
type DiceRolledPayload struct {
	Value int `json:"value"`
}

// TokenMovedPayload is the payload for game.token_moved
type TokenMovedPayload struct {
	PlayerID string `json:"playerId"`
	Pos      int    `json:"pos"`
	Steps    int    `json:"steps"`
}

// TurnChangedPayload is the payload for game.turn_changed
type TurnChangedPayload struct {
	ActivePlayerID string `json:"activePlayerId"`
}

// ErrorPayload carries a closed error code. Clients dispatch on the code,
// never on message text.
type ErrorPayload struct {
	Message ErrorCode `json:"message"`
}

// ErrorCode is the closed enumeration of protocol-visible error kinds
type ErrorCode string

const (
	CodeBadMessage       ErrorCode = "BAD_MESSAGE"
	CodeJoinRoomFirst    ErrorCode = "JOIN_ROOM_FIRST"
	CodeRoomNotFound     ErrorCode = "ROOM_NOT_FOUND"
	CodeRoomFull         ErrorCode = "ROOM_FULL"
	CodeRoomNotJoinable  ErrorCode = "ROOM_NOT_JOINABLE"
	CodeNotAllReady      ErrorCode = "NOT_ALL_READY_OR_TOO_FEW_PLAYERS"
	CodeAlreadyStarted   ErrorCode = "GAME_ALREADY_STARTED"
	CodeGameNotStarted   ErrorCode = "GAME_NOT_STARTED"
	CodeNotYourTurn      ErrorCode = "NOT_YOUR_TURN"
	CodeWrongPhase       ErrorCode = "WRONG_PHASE"
	CodeRollDiceFirst    ErrorCode = "ROLL_DICE_FIRST"
	CodeInvalidSteps     ErrorCode = "INVALID_STEPS"
	CodeStepsMismatch    ErrorCode = "STEPS_MUST_EQUAL_DICE"
	CodeNotInRoom        ErrorCode = "NOT_IN_ROOM"
	CodeInternal         ErrorCode = "INTERNAL"
)

// Message constructors

func errorMessage(code ErrorCode) Message {
	return Message{Type: MessageTypeError, Payload: ErrorPayload{Message: code}}
}

func roomStateMessage(room response.Room) Message {
	return Message{Type: MessageTypeRoomState, Payload: room}
}

func gameStateMessage(state response.GameState) Message {
	return Message{Type: MessageTypeGameState, Payload: state}
}
