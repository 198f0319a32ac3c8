package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tokenrace/tokenrace/internal/api/apierr"
	"github.com/tokenrace/tokenrace/internal/api/middleware"
	"github.com/tokenrace/tokenrace/internal/api/request"
	"github.com/tokenrace/tokenrace/internal/api/response"
	"github.com/tokenrace/tokenrace/internal/model"
	"github.com/tokenrace/tokenrace/internal/services/room"
)

// RoomHandler handles room CRUD endpoints
type RoomHandler struct {
	roomService *room.Service
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomService *room.Service) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.List(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"rooms": response.RoomsFromModel(rooms),
	})
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])

	rm, err := h.roomService.Get(r.Context(), roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"room": response.RoomFromModel(rm),
	})
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Title == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("title is required"))
		return
	}

	rm, err := h.roomService.Create(r.Context(), identity.UserID, req.Title, req.MaxPlayers)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"room": response.RoomFromModel(rm),
	})
}

// Join handles POST /api/v1/rooms/{id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	rm, err := h.roomService.Join(r.Context(), roomID, identity.UserID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"room": response.RoomFromModel(rm),
	})
}

// Leave handles POST /api/v1/rooms/{id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	rm, err := h.roomService.Leave(r.Context(), roomID, identity.UserID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"room": response.RoomFromModel(rm),
	})
}

// Ready handles POST /api/v1/rooms/{id}/ready
func (h *RoomHandler) Ready(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	roomID := model.RoomID(mux.Vars(r)["id"])

	var req request.ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	rm, err := h.roomService.SetReady(r.Context(), roomID, identity.UserID, req.Ready)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"room": response.RoomFromModel(rm),
	})
}
