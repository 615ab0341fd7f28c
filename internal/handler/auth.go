package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"lingualearner-api/internal/config"
	"lingualearner-api/internal/httputil"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/service"
)

// AuthHandler groups registration and login endpoints.
type AuthHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
	config       *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, tokenService *service.TokenService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		config:       cfg,
	}
}

// Register handles user registration
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Email already registered")
		case errors.Is(err, model.ErrNameLength),
			errors.Is(err, model.ErrInvalidEmail),
			errors.Is(err, model.ErrPasswordTooShort):
			httputil.WriteBadRequest(w, err.Error())
		default:
			writeStoreError(w, err, "Failed to register user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user login
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Email == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		writeStoreError(w, err, "Failed to login")
		return
	}

	token, err := h.tokenService.Issue(user.ID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate token")
		return
	}

	response := model.LoginResponse{
		Message:   "Login successful",
		Token:     token,
		User:      user,
		ExpiresIn: h.config.TokenMaxAge,
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// writeStoreError maps an unexpected service failure to a response. A store
// call that ran out of its deadline reads as the backend being unavailable,
// not a server bug.
func writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, context.DeadlineExceeded) {
		httputil.WriteUnavailable(w, "Service temporarily unavailable")
		return
	}
	httputil.WriteInternalError(w, message)
}
