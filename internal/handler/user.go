package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"lingualearner-api/internal/httputil"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/service"
	"lingualearner-api/internal/transport/http/middleware"
)

// UserHandler groups profile endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the caller's own profile
// GET /user/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Check confirms the bearer token still resolves to a live account
// GET /user/check
func (h *UserHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token is valid",
		"user":    user,
	})
}

// UpdateProfile applies a partial update to the caller's profile
// PUT /user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Email already registered")
		case errors.Is(err, model.ErrNameLength),
			errors.Is(err, model.ErrInvalidEmail),
			errors.Is(err, model.ErrPasswordTooShort),
			errors.Is(err, model.ErrInvalidImageURL):
			httputil.WriteBadRequest(w, err.Error())
		default:
			writeStoreError(w, err, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

// DeleteProfile hard-deletes the caller's account
// DELETE /user/profile
func (h *UserHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.userService.Delete(r.Context(), user.ID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		writeStoreError(w, err, "Failed to delete account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Account deleted successfully",
	})
}

// List returns all registered users
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeStoreError(w, err, "Failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}
