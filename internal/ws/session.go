package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tokenrace/tokenrace/internal/api/response"
	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/services/auth"
	"github.com/tokenrace/tokenrace/internal/services/game"
	"github.com/tokenrace/tokenrace/internal/services/room"
)

// Handler is the session protocol handler. Each connection's inbound
// stream is processed sequentially by its own goroutine; shared state
// (registry, per-room game state, room store) carries its own locking.
//
// Error surfacing follows the room-public model: domain errors from room
// and game actions are broadcast to the whole room, while framing errors
// and pre-join failures go only to the offending connection.
//
// Room-scoped actions run under a per-room lock that covers both the state
// change and the broadcasts it produces, so events from back-to-back
// actions on different connections cannot interleave on the wire.
type Handler struct {
	auth        *auth.Service
	rooms       *room.Service
	games       *game.Service
	registry    *Registry
	broadcaster *Broadcaster
	locks       *roomLocks
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates the websocket session handler
func NewHandler(
	authService *auth.Service,
	roomService *room.Service,
	gameService *game.Service,
	registry *Registry,
	broadcaster *Broadcaster,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        authService,
		rooms:       roomService,
		games:       gameService,
		registry:    registry,
		broadcaster: broadcaster,
		locks:       newRoomLocks(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client is served from a different origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the connection and runs its session. The bearer token
// arrives as a handshake query parameter; an absent or invalid token
// terminates the connection with a policy-violation close status and no
// further events.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	identity, err := h.auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token")
		_ = wsConn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = wsConn.WriteMessage(websocket.CloseMessage, msg)
		_ = wsConn.Close()
		return
	}

	conn := newConn(wsConn, identity, h.logger)
	h.registry.Register(conn)
	go conn.writePump()

	conn.Send(Message{
		Type:    MessageTypeConnected,
		Payload: ConnectedPayload{UserID: string(identity.UserID)},
	})

	h.logger.Info("connection established", slog.String("user_id", string(identity.UserID)))

	h.readPump(r.Context(), conn)
}

// readPump processes the connection's inbound stream strictly sequentially
func (h *Handler) readPump(ctx context.Context, conn *Conn) {
	defer h.handleDisconnect(ctx, conn)

	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Framing errors stay private to the offender
			conn.Send(errorMessage(CodeBadMessage))
			continue
		}

		h.dispatch(ctx, conn, env)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *Conn, env Envelope) {
	// ping bypasses all room and auth-state checks
	if env.Type == MessageTypePing {
		conn.Send(Message{Type: MessageTypePong, Payload: env.Payload})
		return
	}

	if env.Type == MessageTypeRoomJoin {
		h.handleJoin(ctx, conn, env)
		return
	}

	// Every other kind is room-scoped and requires a successful join first
	roomID := h.registry.RoomOf(conn)
	if roomID == "" {
		conn.Send(errorMessage(CodeJoinRoomFirst))
		return
	}

	lock := h.locks.lock(roomID)
	defer h.locks.unlock(roomID, lock)

	switch env.Type {
	case MessageTypeRoomLeave:
		h.handleLeave(ctx, conn, roomID)
	case MessageTypeRoomReady:
		h.handleReady(ctx, conn, roomID, env)
	case MessageTypeGameStart, MessageTypeGameRoll, MessageTypeGameMove:
		h.handleGameMessage(ctx, conn, roomID, env)
	default:
		conn.Send(errorMessage(CodeBadMessage))
	}
}

func (h *Handler) handleJoin(ctx context.Context, conn *Conn, env Envelope) {
	var payload JoinPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload.RoomID == "" {
		conn.Send(errorMessage(CodeBadMessage))
		return
	}
	roomID := model.RoomID(payload.RoomID)

	lock := h.locks.lock(roomID)
	defer h.locks.unlock(roomID, lock)

	// Join failures go to the offender only: they are not yet in the room
	rm, err := h.rooms.Join(ctx, roomID, conn.UserID())
	if err != nil {
		conn.Send(errorMessage(codeForError(err)))
		return
	}

	if err := h.registry.AttachToRoom(conn, roomID); err != nil {
		conn.Send(errorMessage(CodeInternal))
		return
	}

	h.broadcaster.Broadcast(roomID, Message{
		Type:    MessageTypePlayerJoined,
		Payload: PlayerEventPayload{UserID: string(conn.UserID())},
	})
	h.broadcaster.Broadcast(roomID, roomStateMessage(response.RoomFromModel(rm)))

	// Sync a reconnecting client with any game already in progress
	if snap := h.games.State(roomID); snap != nil && snap.Started {
		conn.Send(gameStateMessage(response.GameStateFromModel(snap)))
	}
}

func (h *Handler) handleLeave(ctx context.Context, conn *Conn, roomID model.RoomID) {
	rm, err := h.rooms.Leave(ctx, roomID, conn.UserID())
	if err != nil {
		h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
		return
	}

	h.registry.DetachFromRoom(conn)

	h.broadcaster.Broadcast(roomID, Message{
		Type:    MessageTypePlayerLeft,
		Payload: PlayerEventPayload{UserID: string(conn.UserID())},
	})
	h.broadcaster.Broadcast(roomID, roomStateMessage(response.RoomFromModel(rm)))
}

func (h *Handler) handleReady(ctx context.Context, conn *Conn, roomID model.RoomID, env Envelope) {
	var payload ReadyPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		conn.Send(errorMessage(CodeBadMessage))
		return
	}

	rm, err := h.rooms.SetReady(ctx, roomID, conn.UserID(), payload.Ready)
	if err != nil {
		h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
		return
	}

	h.broadcaster.Broadcast(roomID, roomStateMessage(response.RoomFromModel(rm)))
}

// handleGameMessage re-fetches the room so a membership list mutated over
// HTTP since join is still what the state machine sees. A room that
// vanished from the store fails the whole action with a room-not-found
// broadcast.
func (h *Handler) handleGameMessage(ctx context.Context, conn *Conn, roomID model.RoomID, env Envelope) {
	rm, err := h.rooms.Get(ctx, roomID)
	if err != nil {
		h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
		return
	}

	actor := conn.UserID()

	switch env.Type {
	case MessageTypeGameStart:
		snap, err := h.games.Start(rm, actor)
		if err != nil {
			h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
			return
		}

		// Lifecycle hook: the room stops accepting joiners once play begins
		if err := h.rooms.SetStatus(ctx, roomID, model.RoomStatusInGame); err != nil {
			h.logger.Warn("failed to mark room in game",
				slog.String("room_id", string(roomID)),
				slog.Any("error", err))
		}

		h.broadcaster.Broadcast(roomID, Message{
			Type:    MessageTypeGameStarted,
			Payload: GameStartedPayload{ActivePlayerID: string(snap.ActivePlayerID)},
		})
		h.broadcaster.Broadcast(roomID, gameStateMessage(response.GameStateFromModel(snap)))

	case MessageTypeGameRoll:
		value, snap, err := h.games.Roll(roomID, actor)
		if err != nil {
			h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
			return
		}

		h.broadcaster.Broadcast(roomID, Message{
			Type:    MessageTypeDiceRolled,
			Payload: DiceRolledPayload{Value: value},
		})
		h.broadcaster.Broadcast(roomID, gameStateMessage(response.GameStateFromModel(snap)))

	case MessageTypeGameMove:
		var payload MovePayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			conn.Send(errorMessage(CodeBadMessage))
			return
		}
		if payload.Steps != float64(int(payload.Steps)) {
			h.broadcaster.Broadcast(roomID, errorMessage(CodeInvalidSteps))
			return
		}

		result, snap, err := h.games.Move(roomID, actor, int(payload.Steps))
		if err != nil {
			h.broadcaster.Broadcast(roomID, errorMessage(codeForError(err)))
			return
		}

		h.broadcaster.Broadcast(roomID, Message{
			Type: MessageTypeTokenMoved,
			Payload: TokenMovedPayload{
				PlayerID: string(result.PlayerID),
				Pos:      result.Position,
				Steps:    result.Steps,
			},
		})
		h.broadcaster.Broadcast(roomID, Message{
			Type:    MessageTypeTurnChanged,
			Payload: TurnChangedPayload{ActivePlayerID: string(result.NextPlayerID)},
		})
		h.broadcaster.Broadcast(roomID, gameStateMessage(response.GameStateFromModel(snap)))
	}
}

// handleDisconnect cleans up when a connection's read loop exits. In a
// waiting room, cleanup is symmetric with an explicit leave: when this was
// the user's last live connection, their seat is freed too, so a dropped
// connection never blocks the room on a ghost player's readiness. Once play
// has begun the seat is kept: turn order is already snapshotted into the
// game and the player must be able to reconnect.
func (h *Handler) handleDisconnect(ctx context.Context, conn *Conn) {
	roomID := h.registry.RoomOf(conn)
	h.registry.Unregister(conn)
	conn.close()

	h.logger.Info("connection closed", slog.String("user_id", string(conn.UserID())))

	if roomID == "" {
		return
	}

	lock := h.locks.lock(roomID)
	defer h.locks.unlock(roomID, lock)

	if h.registry.UserConnCount(roomID, conn.UserID()) == 0 {
		rm, err := h.rooms.Get(ctx, roomID)
		if err == nil && rm.Status == model.RoomStatusWaiting {
			if _, err := h.rooms.Leave(ctx, roomID, conn.UserID()); err != nil &&
				!errors.Is(err, model.ErrNotInRoom) {
				h.logger.Warn("failed to free seat on disconnect",
					slog.String("room_id", string(roomID)),
					slog.Any("error", err))
			}
		} else if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			h.logger.Warn("failed to fetch room on disconnect",
				slog.String("room_id", string(roomID)),
				slog.Any("error", err))
		}
	}

	h.broadcaster.Broadcast(roomID, Message{
		Type:    MessageTypePlayerLeft,
		Payload: PlayerEventPayload{UserID: string(conn.UserID())},
	})
	h.pushRoomState(ctx, roomID)
}

// pushRoomState broadcasts a fresh room snapshot to the whole room
func (h *Handler) pushRoomState(ctx context.Context, roomID model.RoomID) {
	rm, err := h.rooms.Get(ctx, roomID)
	if err != nil {
		return
	}
	h.broadcaster.Broadcast(roomID, roomStateMessage(response.RoomFromModel(rm)))
}
