package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tokenrace/tokenrace/internal/api/apierr"
	"github.com/tokenrace/tokenrace/internal/api/middleware"
	"github.com/tokenrace/tokenrace/internal/api/request"
	"github.com/tokenrace/tokenrace/internal/api/response"
	"github.com/tokenrace/tokenrace/internal/services/auth"
)

// AuthHandler handles registration and login endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	if !strings.Contains(req.Email, "@") {
		apierr.WriteError(w, apierr.NewInvalidRequestError("a valid email is required"))
		return
	}
	if req.Username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}
	if len(req.Password) < 6 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("password must be at least 6 characters"))
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.UserFromModel(user))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponse{
		Token: token,
		User:  response.UserFromModel(user),
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	response.JSON(w, http.StatusOK, map[string]string{
		"userId": string(identity.UserID),
		"email":  identity.Email,
	})
}
