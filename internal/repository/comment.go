package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment inside the caller's transaction so the
// post's comment counter moves with it. created_at is assigned by the store.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	query := `
		INSERT INTO post_comments (post_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, text, created_at
	`
	var comment model.Comment
	err := tx.GetContext(ctx, &comment, query, postID, userID, text)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// GetByID fetches a comment with its author's current display name.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at,
		       COALESCE(u.name, '') AS author_name
		FROM post_comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Update changes the text. created_at is deliberately untouched; the
// original timestamp is immutable.
func (r *commentRepository) Update(ctx context.Context, commentID int64, text string) (*model.Comment, error) {
	query := `
		UPDATE post_comments
		SET text = $1
		WHERE id = $2
		RETURNING id, post_id, user_id, text, created_at
	`
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, text, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment inside the caller's transaction.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// ListByPost returns a post's comments oldest-first with author names
// joined. Names of deleted accounts come back empty.
func (r *commentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at,
		       COALESCE(u.name, '') AS author_name
		FROM post_comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at, c.id
	`
	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments, query, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
