package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `
	id, author_id AS "author.id", author_name AS "author.name",
	title, content, image_url, like_count, comment_count, created_at, updated_at
`

// Create inserts a new post with its author snapshot.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (author_id, author_name, title, content, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, like_count, comment_count, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query,
		post.Author.ID,
		post.Author.Name,
		post.Title,
		post.Content,
		post.ImageURL,
	)

	err := row.Scan(&post.ID, &post.LikeCount, &post.CommentCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetByID retrieves a single post without its likes or comments.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return &post, nil
}

// GetByIDs retrieves multiple posts, re-ordered to match the input order.
// Used for hydrating the listing from the recent-posts cache.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1)`

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	postsMap := make(map[int64]model.Post, len(posts))
	for _, p := range posts {
		postsMap[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := postsMap[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return ordered, nil
}

// List returns posts newest-first with compound-cursor pagination.
func (r *postRepository) List(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	var query string
	var args []interface{}

	if cursor == nil {
		query = `SELECT ` + postColumns + `
			FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1`
		args = []interface{}{limit + 1}
	} else {
		ts, id, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cursor: %w", err)
		}
		query = `SELECT ` + postColumns + `
			FROM posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3`
		args = []interface{}{ts, id, limit + 1}
	}

	var posts []model.Post
	err := r.db.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		c := FormatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return posts, nextCursor, nil
}

// Exists checks if a post exists.
func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// GetRecent returns the newest posts as (id, epoch) pairs for cache warming.
func (r *postRepository) GetRecent(ctx context.Context, limit int) ([]cache.PostScore, error) {
	query := `
		SELECT id, EXTRACT(EPOCH FROM created_at)::bigint AS timestamp
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`
	type row struct {
		ID        int64 `db:"id"`
		Timestamp int64 `db:"timestamp"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	posts := make([]cache.PostScore, len(rows))
	for i, r := range rows {
		posts[i] = cache.PostScore{PostID: r.ID, Timestamp: r.Timestamp}
	}
	return posts, nil
}

// Like inserts a like row. Returns ErrAlreadyLiked on a duplicate; the
// unique index on (post_id, user_id) is what makes the check-and-append
// atomic under concurrent requests.
func (r *postRepository) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) error {
	query := `INSERT INTO post_likes (post_id, user_id, user_name) VALUES ($1, $2, $3)`
	_, err := tx.ExecContext(ctx, query, postID, userID, userName)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return model.ErrAlreadyLiked
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// TryLike inserts a like row unless one already exists. Reports whether a
// row was inserted.
func (r *postRepository) TryLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) (bool, error) {
	query := `
		INSERT INTO post_likes (post_id, user_id, user_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, postID, userID, userName)
	if err != nil {
		return false, fmt.Errorf("try insert like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Unlike deletes the user's like row if present. Zero rows removed is a
// normal outcome, not an error.
func (r *postRepository) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	query := `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, query, postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetLikes returns a post's like set in insertion order.
func (r *postRepository) GetLikes(ctx context.Context, postID int64) ([]model.Like, error) {
	query := `
		SELECT post_id, user_id, user_name, created_at
		FROM post_likes
		WHERE post_id = $1
		ORDER BY created_at, id
	`
	likes := []model.Like{}
	err := r.db.SelectContext(ctx, &likes, query, postID)
	if err != nil {
		return nil, fmt.Errorf("get likes: %w", err)
	}
	return likes, nil
}

// GetLikesForPosts batch-fetches the like sets for several posts, avoiding
// an N+1 on the listing path.
func (r *postRepository) GetLikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Like, error) {
	result := make(map[int64][]model.Like)
	if len(postIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT post_id, user_id, user_name, created_at
		FROM post_likes
		WHERE post_id = ANY($1)
		ORDER BY created_at, id
	`
	var likes []model.Like
	err := r.db.SelectContext(ctx, &likes, query, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("get likes for posts: %w", err)
	}

	for _, l := range likes {
		result[l.PostID] = append(result[l.PostID], l)
	}
	return result, nil
}

func (r *postRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET like_count = like_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("increment like count: %w", err)
	}
	return nil
}

func (r *postRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	query := `UPDATE posts SET comment_count = comment_count + $1 WHERE id = $2`
	_, err := tx.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("increment comment count: %w", err)
	}
	return nil
}
