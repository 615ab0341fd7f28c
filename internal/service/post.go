package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/model"
	"lingualearner-api/internal/queue"
	"lingualearner-api/internal/repository"
)

const (
	// ListDefaultLimit is the page size when the client sends none.
	ListDefaultLimit = 20

	// ListMaxLimit caps the page size.
	ListMaxLimit = 100

	// CacheWarmLimit is max posts fetched when warming the recent cache.
	CacheWarmLimit = 500
)

// PostService owns post creation, listing and the like state machine.
// recent and publisher may be nil when Redis is not configured; every
// cache path falls back to the database.
type PostService struct {
	postRepo  repository.PostRepository
	recent    cache.RecentPosts
	publisher queue.Publisher
	db        *sqlx.DB
}

func NewPostService(
	postRepo repository.PostRepository,
	recent cache.RecentPosts,
	publisher queue.Publisher,
	db *sqlx.DB,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		recent:    recent,
		publisher: publisher,
		db:        db,
	}
}

func validImageURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Create validates the request, snapshots the author and persists the post.
// The author name is frozen at this point and never re-joined.
func (s *PostService) Create(ctx context.Context, author *model.User, req model.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	if len(title) > model.MaxTitleLength {
		return nil, model.ErrTitleTooLong
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, model.ErrContentRequired
	}
	if req.ImageURL != nil && *req.ImageURL != "" && !validImageURL(*req.ImageURL) {
		return nil, model.ErrInvalidImageURL
	}

	post := &model.Post{
		Author: model.Author{
			ID:   author.ID,
			Name: author.Name,
		},
		Title:   title,
		Content: strings.TrimSpace(req.Content),
	}
	if req.ImageURL != nil && *req.ImageURL != "" {
		post.ImageURL = req.ImageURL
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Likes = []model.Like{}

	// Publish event for the cache worker. Best-effort: the post is
	// committed, and the cache warms itself on the next cold read anyway.
	if s.publisher != nil {
		event := queue.NewPostCreatedEvent(post.ID, author.ID)
		if _, err := s.publisher.Publish(ctx, queue.StreamPosts, event); err != nil {
			log.Printf("[PostService] Failed to publish PostCreated event: post=%d err=%v", post.ID, err)
		}
	}

	return post, nil
}

// GetByID retrieves a single post with its like set. viewerID, when known,
// personalizes is_liked.
func (s *PostService) GetByID(ctx context.Context, postID int64, viewerID *int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	likes, err := s.postRepo.GetLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Likes = likes

	if viewerID != nil {
		for _, l := range likes {
			if l.UserID == *viewerID {
				post.IsLiked = true
				break
			}
		}
	}

	return post, nil
}

// List returns posts newest-first. The recent-posts cache serves the first
// pages when warm; any cache trouble degrades to a plain database read.
func (s *PostService) List(ctx context.Context, cursor *string, limit int, viewerID *int64) (*model.PostListResponse, error) {
	if limit <= 0 {
		limit = ListDefaultLimit
	}
	if limit > ListMaxLimit {
		limit = ListMaxLimit
	}

	var (
		posts      []model.Post
		nextCursor *string
		err        error
	)

	posts, nextCursor, err = s.listFromCache(ctx, cursor, limit)
	if err != nil || posts == nil {
		if err != nil {
			log.Printf("[PostService] cache list failed, falling back to DB: %v", err)
		}
		posts, nextCursor, err = s.postRepo.List(ctx, cursor, limit)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
	}

	if err := s.attachLikes(ctx, posts, viewerID); err != nil {
		return nil, err
	}

	hasMore := nextCursor != nil

	return &model.PostListResponse{
		Posts:      posts,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// listFromCache serves the first page of the listing from the sorted set,
// hydrating full posts from the database. Returns (nil, nil, nil) when the
// cache cannot serve the request, which the caller treats as a miss.
// Cursored pages always go to the database: cache scores carry only second
// granularity, not the compound (created_at, id) position a cursor encodes.
func (s *PostService) listFromCache(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	if s.recent == nil || cursor != nil {
		return nil, nil, nil
	}

	exists, err := s.recent.Exists(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !exists {
		if err := s.warmCache(ctx); err != nil {
			return nil, nil, err
		}
	}

	postIDs, _, err := s.recent.Page(ctx, nil, limit+1)
	if err != nil {
		return nil, nil, err
	}
	if len(postIDs) == 0 {
		// Warm cache with nothing in it: empty listing is the answer.
		return []model.Post{}, nil, nil
	}

	more := len(postIDs) > limit
	if more {
		postIDs = postIDs[:limit]
	}

	posts, err := s.postRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, nil, err
	}

	var nextCursor *string
	if more && len(posts) > 0 {
		last := posts[len(posts)-1]
		c := repository.FormatCursor(last.CreatedAt, last.ID)
		nextCursor = &c
	}

	return posts, nextCursor, nil
}

// warmCache rebuilds the sorted set from the newest posts in the database.
func (s *PostService) warmCache(ctx context.Context) error {
	scores, err := s.postRepo.GetRecent(ctx, CacheWarmLimit)
	if err != nil {
		return fmt.Errorf("fetch posts for warm: %w", err)
	}
	return s.recent.Warm(ctx, scores)
}

// attachLikes batch-loads like sets for the listed posts and marks the
// viewer's likes.
func (s *PostService) attachLikes(ctx context.Context, posts []model.Post, viewerID *int64) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	likesMap, err := s.postRepo.GetLikesForPosts(ctx, postIDs)
	if err != nil {
		return err
	}

	for i := range posts {
		likes := likesMap[posts[i].ID]
		if likes == nil {
			likes = []model.Like{}
		}
		posts[i].Likes = likes
		if viewerID != nil {
			for _, l := range likes {
				if l.UserID == *viewerID {
					posts[i].IsLiked = true
					break
				}
			}
		}
	}

	return nil
}

// Like appends the user to the post's like set. The insert and the counter
// increment commit together; a duplicate surfaces as ErrAlreadyLiked off
// the unique index, never as a second entry.
func (s *PostService) Like(ctx context.Context, postID int64, user *model.User) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.postRepo.Like(ctx, tx, postID, user.ID, user.Name); err != nil {
		return err
	}

	if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, 1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[PostService] User %d liked post %d", user.ID, postID)
	return nil
}

// Unlike removes the user's like if present. Removing a like that does not
// exist is a successful no-op; the counter only moves when a row did.
func (s *PostService) Unlike(ctx context.Context, postID, userID int64) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post exists: %w", err)
	}
	if !exists {
		return model.ErrPostNotFound
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := s.postRepo.Unlike(ctx, tx, postID, userID)
	if err != nil {
		return err
	}

	if removed {
		if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, -1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Printf("[PostService] User %d unliked post %d (removed=%v)", userID, postID, removed)
	return nil
}

// ToggleLike flips the user's like state in one transaction. The
// conditional insert and the fallback delete both key on the unique index,
// so racing a toggle against a like or another toggle can never produce a
// duplicate entry.
func (s *PostService) ToggleLike(ctx context.Context, postID int64, user *model.User) (*model.LikeResult, error) {
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

	inserted, err := s.postRepo.TryLike(ctx, tx, postID, user.ID, user.Name)
	if err != nil {
		return nil, err
	}

	liked := inserted
	delta := 1
	if !inserted {
		removed, err := s.postRepo.Unlike(ctx, tx, postID, user.ID)
		if err != nil {
			return nil, err
		}
		liked = false
		delta = 0
		if removed {
			delta = -1
		}
	}

	if delta != 0 {
		if err := s.postRepo.IncrementLikeCount(ctx, tx, postID, delta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	likes, err := s.postRepo.GetLikes(ctx, postID)
	if err != nil {
		return nil, err
	}

	log.Printf("[PostService] User %d toggled post %d -> liked=%v", user.ID, postID, liked)

	return &model.LikeResult{Liked: liked, LikeCount: len(likes)}, nil
}
