package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"lingualearner-api/internal/httputil"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/service"
	"lingualearner-api/internal/transport/http/middleware"
)

// MediaHandler groups image upload endpoints. Only mounted when object
// storage is configured.
type MediaHandler struct {
	mediaService *service.MediaService
	userService  *service.UserService
}

func NewMediaHandler(mediaService *service.MediaService, userService *service.UserService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		userService:  userService,
	}
}

// UploadAvatar uploads a profile picture and points the caller's profile
// at the resulting URL
// POST /media/avatar
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	file, header, ok := h.openUpload(w, r, model.MaxAvatarSizeBytes)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadProfilePicture(r.Context(), file, header)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &model.UpdateProfileRequest{
		ProfilePicture: &upload.URL,
	})
	if err != nil {
		writeStoreError(w, err, "Failed to update profile picture")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"url":  upload.URL,
		"user": updated,
	})
}

// UploadPostImage uploads a post image and returns its URL for use in a
// subsequent post creation
// POST /media/posts
func (h *MediaHandler) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	file, header, ok := h.openUpload(w, r, model.MaxPostImageSizeBytes)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadPostImage(r.Context(), file, header)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}

// openUpload parses the multipart form and returns the "image" file. Writes
// the error response itself when the form is unusable.
func (h *MediaHandler) openUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (multipart.File, *multipart.FileHeader, bool) {
	maxFormSize := maxSize + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return nil, nil, false
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequest(w, "File exceeds the size limit")
			return nil, nil, false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return nil, nil, false
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		httputil.WriteBadRequest(w, "An image file is required in the 'image' field")
		return nil, nil, false
	}
	return f, hdr, true
}

func (h *MediaHandler) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequest(w, "File exceeds the size limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequest(w, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		writeStoreError(w, err, "Failed to upload image")
	}
}
