package model

import (
	"errors"
	"time"
)

// Author is the snapshot of the creating user embedded in a post. It is
// copied at creation time and intentionally goes stale: the name survives
// profile renames and account deletion.
type Author struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Post represents a blog post with its embedded author snapshot.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	Author       Author    `db:"author" json:"author"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	ImageURL     *string   `db:"image_url" json:"img"`
	LikeCount    int       `db:"like_count" json:"like_count"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not columns of the posts table)
	Likes    []Like    `json:"likes"`
	Comments []Comment `json:"comments,omitempty"`
	IsLiked  bool      `json:"is_liked"`
}

// Like is one entry in a post's like set. A user id appears at most once
// per post, enforced by the store's unique index.
type Like struct {
	PostID    int64     `db:"post_id" json:"-"`
	UserID    int64     `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"img"`
}

// LikeResult is returned by the toggle endpoint with the resulting state.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// PostListResponse is the post listing response.
type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// Post constraints
const (
	MaxTitleLength = 200
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title too long")
	ErrContentRequired = errors.New("content is required")
	ErrInvalidImageURL = errors.New("image URL must be a valid URL")
	ErrAlreadyLiked    = errors.New("already liked this post")
)
