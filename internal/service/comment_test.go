package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/model"
)

type mockCommentRepository struct {
	createFn     func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error)
	getByIDFn    func(ctx context.Context, commentID int64) (*model.Comment, error)
	updateFn     func(ctx context.Context, commentID int64, text string) (*model.Comment, error)
	deleteFn     func(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	listByPostFn func(ctx context.Context, postID int64) ([]model.Comment, error)

	deleteCalls []int64
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, tx, postID, userID, text)
	}
	return &model.Comment{ID: 1, PostID: postID, UserID: userID, Text: text, CreatedAt: time.Now()}, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID int64, text string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, text)
	}
	return &model.Comment{ID: commentID, Text: text}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	m.deleteCalls = append(m.deleteCalls, commentID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tx, commentID)
	}
	return nil
}

func (m *mockCommentRepository) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	if m.listByPostFn != nil {
		return m.listByPostFn(ctx, postID)
	}
	return []model.Comment{}, nil
}

// existingComment is the stored comment most tests operate on: comment 7 on
// post 5, written by user 10.
func existingComment() *model.Comment {
	return &model.Comment{
		ID:        7,
		PostID:    5,
		UserID:    10,
		Text:      "original text",
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCommentService_Create_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	commentRepo := &mockCommentRepository{}
	postRepo := &mockPostRepository{}
	svc := NewCommentService(commentRepo, postRepo, db)

	user := &model.User{ID: 10, Name: "Alice"}
	comment, err := svc.Create(context.Background(), 5, user, model.CreateCommentRequest{Text: "great post"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.Text != "great post" {
		t.Errorf("text = %q, want %q", comment.Text, "great post")
	}
	if comment.AuthorName != "Alice" {
		t.Errorf("author name = %q, want %q", comment.AuthorName, "Alice")
	}
	// Timestamp is server-assigned, never client-provided
	if comment.CreatedAt.IsZero() {
		t.Error("created_at should be set by the server")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestCommentService_Create_StoresTrimmedText(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var storedText string
	commentRepo := &mockCommentRepository{
		createFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, text string) (*model.Comment, error) {
			storedText = text
			return &model.Comment{ID: 1, PostID: postID, UserID: userID, Text: text, CreatedAt: time.Now()}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, db)

	comment, err := svc.Create(context.Background(), 5, &model.User{ID: 10, Name: "Alice"}, model.CreateCommentRequest{Text: "  nice writeup \n"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedText != "nice writeup" {
		t.Errorf("stored text = %q, want %q", storedText, "nice writeup")
	}
	if comment.Text != "nice writeup" {
		t.Errorf("returned text = %q, want %q", comment.Text, "nice writeup")
	}
}

func TestCommentService_Update_StoresTrimmedText(t *testing.T) {
	var storedText string
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return existingComment(), nil
		},
		updateFn: func(ctx context.Context, commentID int64, text string) (*model.Comment, error) {
			storedText = text
			return &model.Comment{ID: commentID, PostID: 5, UserID: 10, Text: text}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, nil)

	updated, err := svc.Update(context.Background(), 5, 7, 10, model.UpdateCommentRequest{Text: "  edited  "})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedText != "edited" {
		t.Errorf("stored text = %q, want %q", storedText, "edited")
	}
	if updated.Text != "edited" {
		t.Errorf("returned text = %q, want %q", updated.Text, "edited")
	}
}

func TestCommentService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", model.ErrCommentTextRequired},
		{"whitespace only", "   \n\t ", model.ErrCommentTextRequired},
		{"too long", strings.Repeat("x", model.MaxCommentLength+1), model.ErrCommentTextTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, nil)

			_, err := svc.Create(context.Background(), 5, &model.User{ID: 10}, model.CreateCommentRequest{Text: tt.text})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommentService_Create_PostNotFound(t *testing.T) {
	postRepo := &mockPostRepository{
		existsFn: func(ctx context.Context, postID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewCommentService(&mockCommentRepository{}, postRepo, nil)

	_, err := svc.Create(context.Background(), 999, &model.User{ID: 10}, model.CreateCommentRequest{Text: "hi"})

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestCommentService_Update_Ownership(t *testing.T) {
	tests := []struct {
		name    string
		postID  int64
		userID  int64
		wantErr error
	}{
		{"author can edit", 5, 10, nil},
		{"non-author forbidden", 5, 20, model.ErrNotCommentOwner},
		// A comment addressed under the wrong post is a missing resource,
		// checked before ownership
		{"wrong post wins over ownership", 6, 20, model.ErrCommentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commentRepo := &mockCommentRepository{
				getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
					return existingComment(), nil
				},
			}
			svc := NewCommentService(commentRepo, &mockPostRepository{}, nil)

			_, err := svc.Update(context.Background(), tt.postID, 7, tt.userID, model.UpdateCommentRequest{Text: "edited"})

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommentService_Update_KeepsCreatedAt(t *testing.T) {
	original := existingComment()
	commentRepo := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return original, nil
		},
		updateFn: func(ctx context.Context, commentID int64, text string) (*model.Comment, error) {
			// The repository only ever touches the text column.
			updated := *original
			updated.Text = text
			return &updated, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, nil)

	updated, err := svc.Update(context.Background(), 5, 7, 10, model.UpdateCommentRequest{Text: "edited"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Text != "edited" {
		t.Errorf("text = %q, want %q", updated.Text, "edited")
	}
	if !updated.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("created_at changed on update: %v -> %v", original.CreatedAt, updated.CreatedAt)
	}
}

func TestCommentService_Delete(t *testing.T) {
	t.Run("author deletes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		commentRepo := &mockCommentRepository{
			getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
				return existingComment(), nil
			},
		}
		postRepo := &mockPostRepository{}
		decremented := false
		postRepo.incrementCommentCountFn = func(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
			if delta != -1 {
				t.Errorf("comment count delta = %d, want -1", delta)
			}
			decremented = true
			return nil
		}
		svc := NewCommentService(commentRepo, postRepo, db)

		if err := svc.Delete(context.Background(), 5, 7, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(commentRepo.deleteCalls) != 1 || commentRepo.deleteCalls[0] != 7 {
			t.Errorf("delete calls = %v, want [7]", commentRepo.deleteCalls)
		}
		if !decremented {
			t.Error("comment counter should be decremented with the delete")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("tx expectations: %v", err)
		}
	})

	t.Run("non-author forbidden", func(t *testing.T) {
		commentRepo := &mockCommentRepository{
			getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
				return existingComment(), nil
			},
		}
		svc := NewCommentService(commentRepo, &mockPostRepository{}, nil)

		err := svc.Delete(context.Background(), 5, 7, 99)

		if !errors.Is(err, model.ErrNotCommentOwner) {
			t.Errorf("error = %v, want %v", err, model.ErrNotCommentOwner)
		}
		if len(commentRepo.deleteCalls) != 0 {
			t.Error("Delete should not reach the repository")
		}
	})

	t.Run("missing comment", func(t *testing.T) {
		svc := NewCommentService(&mockCommentRepository{}, &mockPostRepository{}, nil)

		err := svc.Delete(context.Background(), 5, 404, 10)

		if !errors.Is(err, model.ErrCommentNotFound) {
			t.Errorf("error = %v, want %v", err, model.ErrCommentNotFound)
		}
	})
}

func TestCommentService_ListByPost(t *testing.T) {
	commentRepo := &mockCommentRepository{
		listByPostFn: func(ctx context.Context, postID int64) ([]model.Comment, error) {
			return []model.Comment{
				{ID: 1, PostID: postID, Text: "first"},
				{ID: 2, PostID: postID, Text: "second"},
			}, nil
		},
	}
	svc := NewCommentService(commentRepo, &mockPostRepository{}, nil)

	resp, err := svc.ListByPost(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Comments) != 2 {
		t.Errorf("got %d comments, want 2", len(resp.Comments))
	}
}
