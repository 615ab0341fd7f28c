package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update persists the full row; partial-field semantics live in the service.
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.User, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error)
	List(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error)
	Exists(ctx context.Context, postID int64) (bool, error)
	// GetRecent returns (postID, created_at epoch) pairs for cache warming.
	GetRecent(ctx context.Context, limit int) ([]cache.PostScore, error)

	// Like inserts a like row; the unique index on (post_id, user_id) makes
	// the membership check and the append one atomic operation.
	Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) error
	// TryLike is Like with ON CONFLICT DO NOTHING; reports whether a row
	// was inserted. Used by the toggle path.
	TryLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) (bool, error)
	// Unlike removes the user's like if present; reports whether a row was
	// removed. Removing a non-existent like is not an error.
	Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	GetLikes(ctx context.Context, postID int64) ([]model.Like, error)
	GetLikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Like, error)
	IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error)
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	// Update changes the text only; created_at is immutable. Ownership is
	// checked by the service before calling.
	Update(ctx context.Context, commentID int64, text string) (*model.Comment, error)
	Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	ListByPost(ctx context.Context, postID int64) ([]model.Comment, error)
}
