package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. CreatedAt is assigned by the
// store and never updated, even when the text is edited.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// AuthorName is joined from users at read time. Empty when the
	// account has been deleted since.
	AuthorName string `db:"author_name" json:"author_name"`
}

// CreateCommentRequest is the request body for adding a comment.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Text string `json:"text"`
}

// CommentListResponse wraps the public comment listing.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
}

// Comment constraints
const (
	MaxCommentLength = 1000
)

// Comment errors
var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrNotCommentOwner     = errors.New("not the owner of this comment")
	ErrCommentTextRequired = errors.New("comment text is required")
	ErrCommentTextTooLong  = errors.New("comment text too long")
)
