package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/queue"
)

// =============================================================================
// MOCKS
// =============================================================================

// mockPostRepository lets each test define custom behavior per method.
type mockPostRepository struct {
	createFn                func(ctx context.Context, post *model.Post) error
	getByIDFn               func(ctx context.Context, postID int64) (*model.Post, error)
	getByIDsFn              func(ctx context.Context, postIDs []int64) ([]model.Post, error)
	listFn                  func(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error)
	existsFn                func(ctx context.Context, postID int64) (bool, error)
	getRecentFn             func(ctx context.Context, limit int) ([]cache.PostScore, error)
	likeFn                  func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) error
	tryLikeFn               func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) (bool, error)
	unlikeFn                func(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error)
	getLikesFn              func(ctx context.Context, postID int64) ([]model.Like, error)
	getLikesForPostsFn      func(ctx context.Context, postIDs []int64) (map[int64][]model.Like, error)
	incrementLikeCountFn    func(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error
	incrementCommentCountFn func(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error

	likeCountDeltas []int
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = 1
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, postID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, postIDs)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) List(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, cursor, limit)
	}
	return []model.Post{}, nil, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return true, nil
}

func (m *mockPostRepository) GetRecent(ctx context.Context, limit int) ([]cache.PostScore, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) Like(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) error {
	if m.likeFn != nil {
		return m.likeFn(ctx, tx, postID, userID, userName)
	}
	return nil
}

func (m *mockPostRepository) TryLike(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) (bool, error) {
	if m.tryLikeFn != nil {
		return m.tryLikeFn(ctx, tx, postID, userID, userName)
	}
	return true, nil
}

func (m *mockPostRepository) Unlike(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, tx, postID, userID)
	}
	return true, nil
}

func (m *mockPostRepository) GetLikes(ctx context.Context, postID int64) ([]model.Like, error) {
	if m.getLikesFn != nil {
		return m.getLikesFn(ctx, postID)
	}
	return []model.Like{}, nil
}

func (m *mockPostRepository) GetLikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Like, error) {
	if m.getLikesForPostsFn != nil {
		return m.getLikesForPostsFn(ctx, postIDs)
	}
	return map[int64][]model.Like{}, nil
}

func (m *mockPostRepository) IncrementLikeCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	m.likeCountDeltas = append(m.likeCountDeltas, delta)
	if m.incrementLikeCountFn != nil {
		return m.incrementLikeCountFn(ctx, tx, postID, delta)
	}
	return nil
}

func (m *mockPostRepository) IncrementCommentCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) error {
	if m.incrementCommentCountFn != nil {
		return m.incrementCommentCountFn(ctx, tx, postID, delta)
	}
	return nil
}

// mockPublisher records published events.
type mockPublisher struct {
	events []queue.PostEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.PostEvent) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}

// newMockDB provides a sqlx.DB whose transactions are driven by sqlmock.
// The repository calls themselves go through the mock repository, so only
// Begin/Commit/Rollback reach the driver.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testAuthor() *model.User {
	return &model.User{ID: 10, Name: "Alice", Email: "alice@example.com"}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestPostService_Create_Success(t *testing.T) {
	mockRepo := &mockPostRepository{}
	pub := &mockPublisher{}
	svc := NewPostService(mockRepo, nil, pub, nil)

	post, err := svc.Create(context.Background(), testAuthor(), model.CreatePostRequest{
		Title:   "  Learning Spanish  ",
		Content: "Day one of my journey",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Title != "Learning Spanish" {
		t.Errorf("title = %q, want trimmed %q", post.Title, "Learning Spanish")
	}
	// Author snapshot is frozen at creation time
	if post.Author.ID != 10 || post.Author.Name != "Alice" {
		t.Errorf("author snapshot = %+v, want {10 Alice}", post.Author)
	}
	if post.Likes == nil || len(post.Likes) != 0 {
		t.Errorf("likes = %v, want empty set", post.Likes)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].Type != queue.EventPostCreated || pub.events[0].PostID != post.ID {
		t.Errorf("event = %+v, want post_created for post %d", pub.events[0], post.ID)
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	longTitle := make([]byte, model.MaxTitleLength+1)
	for i := range longTitle {
		longTitle[i] = 'x'
	}

	tests := []struct {
		name    string
		req     model.CreatePostRequest
		wantErr error
	}{
		{"missing title", model.CreatePostRequest{Content: "body"}, model.ErrTitleRequired},
		{"whitespace title", model.CreatePostRequest{Title: "   ", Content: "body"}, model.ErrTitleRequired},
		{"title too long", model.CreatePostRequest{Title: string(longTitle), Content: "body"}, model.ErrTitleTooLong},
		{"missing content", model.CreatePostRequest{Title: "hi"}, model.ErrContentRequired},
		{"bad image url", model.CreatePostRequest{Title: "hi", Content: "body", ImageURL: strPtr("javascript:alert(1)")}, model.ErrInvalidImageURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPostService(&mockPostRepository{}, nil, nil, nil)

			_, err := svc.Create(context.Background(), testAuthor(), tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostService_Create_NoPublisherIsFine(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), testAuthor(), model.CreatePostRequest{
		Title:   "No Redis today",
		Content: "still works",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// =============================================================================
// LIKE STATE MACHINE TESTS
// =============================================================================

func TestPostService_Like_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	mockRepo := &mockPostRepository{}
	svc := NewPostService(mockRepo, nil, nil, db)

	if err := svc.Like(context.Background(), 5, testAuthor()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mockRepo.likeCountDeltas) != 1 || mockRepo.likeCountDeltas[0] != 1 {
		t.Errorf("like count deltas = %v, want [1]", mockRepo.likeCountDeltas)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestPostService_Like_AlreadyLiked(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	mockRepo := &mockPostRepository{
		likeFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) error {
			return model.ErrAlreadyLiked
		},
	}
	svc := NewPostService(mockRepo, nil, nil, db)

	err := svc.Like(context.Background(), 5, testAuthor())

	if !errors.Is(err, model.ErrAlreadyLiked) {
		t.Errorf("error = %v, want %v", err, model.ErrAlreadyLiked)
	}
	// Counter never moves when the insert was rejected
	if len(mockRepo.likeCountDeltas) != 0 {
		t.Errorf("like count deltas = %v, want none", mockRepo.likeCountDeltas)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestPostService_Like_PostNotFound(t *testing.T) {
	mockRepo := &mockPostRepository{
		existsFn: func(ctx context.Context, postID int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewPostService(mockRepo, nil, nil, nil)

	err := svc.Like(context.Background(), 999, testAuthor())

	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestPostService_Unlike_IsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	mockRepo := &mockPostRepository{
		unlikeFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
			return false, nil // nothing to remove
		},
	}
	svc := NewPostService(mockRepo, nil, nil, db)

	// Removing a like that never existed still succeeds
	if err := svc.Unlike(context.Background(), 5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ... and must not decrement the counter
	if len(mockRepo.likeCountDeltas) != 0 {
		t.Errorf("like count deltas = %v, want none", mockRepo.likeCountDeltas)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestPostService_Unlike_RemovesAndDecrements(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	mockRepo := &mockPostRepository{
		unlikeFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
			return true, nil
		},
	}
	svc := NewPostService(mockRepo, nil, nil, db)

	if err := svc.Unlike(context.Background(), 5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mockRepo.likeCountDeltas) != 1 || mockRepo.likeCountDeltas[0] != -1 {
		t.Errorf("like count deltas = %v, want [-1]", mockRepo.likeCountDeltas)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("tx expectations: %v", err)
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	tests := []struct {
		name       string
		tryLike    bool // whether the conditional insert landed
		unlike     bool // whether the fallback delete removed a row
		wantLiked  bool
		wantDeltas []int
	}{
		{
			name:       "not liked -> liked",
			tryLike:    true,
			wantLiked:  true,
			wantDeltas: []int{1},
		},
		{
			name:       "liked -> unliked",
			tryLike:    false,
			unlike:     true,
			wantLiked:  false,
			wantDeltas: []int{-1},
		},
		{
			// A concurrent unlike can win between the failed insert and
			// the delete; state ends up "not liked" with no counter move.
			name:       "raced: nothing inserted, nothing removed",
			tryLike:    false,
			unlike:     false,
			wantLiked:  false,
			wantDeltas: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectCommit()

			likes := []model.Like{}
			if tt.wantLiked {
				likes = append(likes, model.Like{PostID: 5, UserID: 10, UserName: "Alice"})
			}

			mockRepo := &mockPostRepository{
				tryLikeFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64, userName string) (bool, error) {
					return tt.tryLike, nil
				},
				unlikeFn: func(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
					return tt.unlike, nil
				},
				getLikesFn: func(ctx context.Context, postID int64) ([]model.Like, error) {
					return likes, nil
				},
			}
			svc := NewPostService(mockRepo, nil, nil, db)

			result, err := svc.ToggleLike(context.Background(), 5, testAuthor())

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Liked != tt.wantLiked {
				t.Errorf("liked = %v, want %v", result.Liked, tt.wantLiked)
			}
			if result.LikeCount != len(likes) {
				t.Errorf("like count = %d, want %d", result.LikeCount, len(likes))
			}

			if len(mockRepo.likeCountDeltas) != len(tt.wantDeltas) {
				t.Fatalf("deltas = %v, want %v", mockRepo.likeCountDeltas, tt.wantDeltas)
			}
			for i, d := range tt.wantDeltas {
				if mockRepo.likeCountDeltas[i] != d {
					t.Errorf("deltas = %v, want %v", mockRepo.likeCountDeltas, tt.wantDeltas)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("tx expectations: %v", err)
			}
		})
	}
}

// =============================================================================
// READ PATH TESTS
// =============================================================================

func TestPostService_GetByID_MarksViewerLike(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			return &model.Post{ID: postID, Author: model.Author{ID: 10, Name: "Alice"}}, nil
		},
		getLikesFn: func(ctx context.Context, postID int64) ([]model.Like, error) {
			return []model.Like{
				{PostID: postID, UserID: 10, UserName: "Alice"},
				{PostID: postID, UserID: 20, UserName: "Bob"},
			}, nil
		},
	}
	svc := NewPostService(mockRepo, nil, nil, nil)

	viewer := int64(20)
	post, err := svc.GetByID(context.Background(), 5, &viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !post.IsLiked {
		t.Error("is_liked should be true for a viewer in the like set")
	}

	stranger := int64(99)
	post, err = svc.GetByID(context.Background(), 5, &stranger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.IsLiked {
		t.Error("is_liked should be false for a viewer outside the like set")
	}
}

// The author snapshot lives on the post row, so listing keeps working after
// the author's account is gone.
func TestPostService_GetByID_AuthorSnapshotSurvives(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, postID int64) (*model.Post, error) {
			// No corresponding users row anymore; the snapshot is all there is.
			return &model.Post{ID: postID, Author: model.Author{ID: 404, Name: "Ghost"}}, nil
		},
	}
	svc := NewPostService(mockRepo, nil, nil, nil)

	post, err := svc.GetByID(context.Background(), 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Author.Name != "Ghost" {
		t.Errorf("author name = %q, want snapshot %q", post.Author.Name, "Ghost")
	}
}

func TestPostService_List_FallsBackToDatabase(t *testing.T) {
	listed := false
	mockRepo := &mockPostRepository{
		listFn: func(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
			listed = true
			if limit != ListDefaultLimit {
				t.Errorf("limit = %d, want default %d", limit, ListDefaultLimit)
			}
			next := "123_45"
			return []model.Post{{ID: 1}, {ID: 2}}, &next, nil
		},
	}
	// nil cache: every listing goes straight to the database
	svc := NewPostService(mockRepo, nil, nil, nil)

	resp, err := svc.List(context.Background(), nil, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !listed {
		t.Error("repository List was never called")
	}
	if len(resp.Posts) != 2 {
		t.Errorf("got %d posts, want 2", len(resp.Posts))
	}
	if !resp.HasMore || resp.NextCursor == nil {
		t.Error("expected has_more with a next cursor")
	}
	// Every post carries a non-nil like set
	for _, p := range resp.Posts {
		if p.Likes == nil {
			t.Errorf("post %d has nil likes, want empty set", p.ID)
		}
	}
}
