package model

import "errors"

// UploadResult describes a stored object.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Upload constraints
const (
	MaxAvatarSizeBytes    = 5 * 1024 * 1024
	MaxPostImageSizeBytes = 10 * 1024 * 1024

	AvatarWidth  = 400
	AvatarHeight = 400

	// PostImageMaxDim bounds the longest side of a post image.
	PostImageMaxDim = 1600

	AvatarFolder    = "avatars"
	PostImageFolder = "posts"

	ContentTypeJPEG = "image/jpeg"
	ImageExt        = ".jpg"

	MediaCacheControl = "public, max-age=31536000"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType reports whether the content type may be uploaded.
func IsAllowedImageType(contentType string) bool {
	return allowedImageTypes[contentType]
}

// Media errors
var (
	ErrFileTooLarge     = errors.New("file exceeds the size limit")
	ErrInvalidImageType = errors.New("unsupported image type")
)
