package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/plantwatch/plantwatch/internal/api/middleware"
	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/api/response"
	"github.com/plantwatch/plantwatch/internal/user"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	users  *user.Service
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *user.Service, logger zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// Register handles POST /user - create an account and return a token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.users.Register(r.Context(), &req)
	if err != nil {
		switch {
		case writeValidation(w, r, err):
		case errors.Is(err, user.ErrUserExists):
			response.Conflict(w, r, "user already exists")
		default:
			serverError(w, r, h.logger, "register user", err)
		}
		return
	}

	response.Token(w, r, "registration successful", token)
}

// Login handles PUT /user - verify credentials and return a token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req user.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.users.Login(r.Context(), &req)
	if err != nil {
		switch {
		case writeValidation(w, r, err):
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, r, "user not found")
		case errors.Is(err, user.ErrIncorrectPassword):
			response.Unauthorized(w, r, "incorrect password")
		default:
			serverError(w, r, h.logger, "login", err)
		}
		return
	}

	response.Token(w, r, "login successful", token)
}

// GetSelf handles GET /user - the caller's own profile.
func (h *UserHandler) GetSelf(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, middleware.MessageTokenRequired)
		return
	}

	profile, err := h.users.GetSelf(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, r, "user not found")
			return
		}
		serverError(w, r, h.logger, "get user", err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.UserResponse{
		Message: "user retrieved",
		Usuario: profile,
	})
}
