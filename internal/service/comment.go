package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/model"
	"lingualearner-api/internal/repository"
)

// CommentService owns comment CRUD and its ownership rules.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	db          *sqlx.DB
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	db *sqlx.DB,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		db:          db,
	}
}

// Create appends a comment with a server-assigned timestamp. Text is
// stored trimmed. The insert and the post's comment counter commit
// together.
func (s *CommentService) Create(ctx context.Context, postID int64, user *model.User, req model.CreateCommentRequest) (*model.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, model.ErrCommentTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTextTooLong
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	comment, err := s.commentRepo.Create(ctx, tx, postID, user.ID, text)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	comment.AuthorName = user.Name

	log.Printf("[CommentService] User %d commented on post %d", user.ID, postID)
	return comment, nil
}

// Update edits the text of the caller's own comment. The comment must
// resolve under the addressed post; anyone but the author gets
// ErrNotCommentOwner. The creation timestamp never changes.
func (s *CommentService) Update(ctx context.Context, postID, commentID, userID int64, req model.UpdateCommentRequest) (*model.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, model.ErrCommentTextRequired
	}
	if len(text) > model.MaxCommentLength {
		return nil, model.ErrCommentTextTooLong
	}

	comment, err := s.getOwned(ctx, postID, commentID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.Update(ctx, comment.ID, text)
	if err != nil {
		return nil, err
	}
	updated.AuthorName = comment.AuthorName

	log.Printf("[CommentService] User %d updated comment %d", userID, commentID)
	return updated, nil
}

// Delete removes the caller's own comment and moves the post counter with it.
func (s *CommentService) Delete(ctx context.Context, postID, commentID, userID int64) error {
	if _, err := s.getOwned(ctx, postID, commentID, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.commentRepo.Delete(ctx, tx, commentID); err != nil {
		return err
	}

	if err := s.postRepo.IncrementCommentCount(ctx, tx, postID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[CommentService] User %d deleted comment %d from post %d", userID, commentID, postID)
	return nil
}

// ListByPost returns a post's comments for the public listing.
func (s *CommentService) ListByPost(ctx context.Context, postID int64) (*model.CommentListResponse, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &model.CommentListResponse{Comments: comments}, nil
}

// getOwned resolves a comment under a post and checks authorship. A comment
// id that exists under a different post is NotFound, not Forbidden: the
// address was wrong before ownership comes into it.
func (s *CommentService) getOwned(ctx context.Context, postID, commentID, userID int64) (*model.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, model.ErrCommentNotFound
	}
	if comment.UserID != userID {
		return nil, model.ErrNotCommentOwner
	}
	return comment, nil
}
