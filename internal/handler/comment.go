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

// CommentHandler groups comment endpoints.
type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// Create adds a comment to a post
// POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, user, req)
	if err != nil {
		h.writeCommentError(w, err, "Failed to create comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// List returns a post's comments
// GET /posts/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post ID")
		return
	}

	response, err := h.commentService.ListByPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteNotFound(w, "Post not found")
			return
		}
		writeStoreError(w, err, "Failed to list comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// Update edits the caller's own comment
// PUT /posts/{id}/comments/{commentId}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, commentID, err := parseCommentPath(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), postID, commentID, user.ID, req)
	if err != nil {
		h.writeCommentError(w, err, "Failed to update comment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete removes the caller's own comment
// DELETE /posts/{id}/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, commentID, err := parseCommentPath(r)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	if err := h.commentService.Delete(r.Context(), postID, commentID, user.ID); err != nil {
		h.writeCommentError(w, err, "Failed to delete comment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// writeCommentError maps comment service errors to responses.
func (h *CommentHandler) writeCommentError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment not found")
	case errors.Is(err, model.ErrNotCommentOwner):
		httputil.WriteForbidden(w, "You can only modify your own comments")
	case errors.Is(err, model.ErrCommentTextRequired),
		errors.Is(err, model.ErrCommentTextTooLong):
		httputil.WriteBadRequest(w, err.Error())
	default:
		writeStoreError(w, err, fallback)
	}
}

// parseCommentPath extracts the {id} and {commentId} route parameters.
func parseCommentPath(r *http.Request) (int64, int64, error) {
	postID, err := parsePostID(r)
	if err != nil {
		return 0, 0, err
	}
	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}
