package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lingualearner-api/internal/httputil"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/service"
	"lingualearner-api/internal/transport/http/middleware"
)

// PostHandler groups post and like endpoints.
type PostHandler struct {
	postService    *service.PostService
	commentService *service.CommentService
}

func NewPostHandler(postService *service.PostService, commentService *service.CommentService) *PostHandler {
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
	}
}

// Create handles post creation
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), user, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTitleRequired),
			errors.Is(err, model.ErrTitleTooLong),
			errors.Is(err, model.ErrContentRequired),
			errors.Is(err, model.ErrInvalidImageURL):
			httputil.WriteBadRequest(w, err.Error())
		default:
			writeStoreError(w, err, "Failed to create post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// List returns the public post listing, newest first
// GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			httputil.WriteBadRequest(w, "Invalid limit")
			return
		}
		limit = parsed
	}

	response, err := h.postService.List(r.Context(), cursor, limit, viewerID(r))
	if err != nil {
		writeStoreError(w, err, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// GetByID returns a single post with its likes and comments
// GET /posts/{id}
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.postService.GetByID(r.Context(), postID, viewerID(r))
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeStoreError(w, err, "Failed to get post")
		return
	}

	comments, err := h.commentService.ListByPost(r.Context(), postID)
	if err != nil {
		writeStoreError(w, err, "Failed to get post")
		return
	}
	post.Comments = comments.Comments

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Like adds the caller to the post's like set
// POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Like(r.Context(), postID, user); err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, "Post already liked")
		default:
			writeStoreError(w, err, "Failed to like post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post liked",
	})
}

// Unlike removes the caller's like; removing a like that never existed
// still succeeds
// DELETE /posts/{id}/like
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	if err := h.postService.Unlike(r.Context(), postID, user.ID); err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeStoreError(w, err, "Failed to unlike post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post unliked",
	})
}

// ToggleLike flips the caller's like state
// PATCH /posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	result, err := h.postService.ToggleLike(r.Context(), postID, user)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeStoreError(w, err, "Failed to toggle like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// parsePostID extracts the {id} route parameter.
func parsePostID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// viewerID returns the caller's id when a valid token was attached, nil for
// anonymous requests.
func viewerID(r *http.Request) *int64 {
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		return &user.ID
	}
	return nil
}
