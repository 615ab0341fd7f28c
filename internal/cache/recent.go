package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RecentPostsKey is the sorted set holding the newest post IDs,
	// scored by creation time. Backs the public post listing.
	RecentPostsKey = "posts:recent"

	// RecentPostsCap is the maximum number of post IDs kept in the set.
	RecentPostsCap = 500

	// RecentPostsTTL expires an idle cache so a cold start re-warms it.
	RecentPostsTTL = 7 * 24 * time.Hour
)

// PostScore represents a post with its timestamp score for caching
type PostScore struct {
	PostID    int64
	Timestamp int64 // Unix timestamp
}

// RecentPosts is the cache of newest post IDs for the public listing.
// Every caller must treat a cache failure as a miss and fall back to the
// database; the cache carries no authoritative state.
type RecentPosts interface {
	// Add inserts one post, trims the set to its cap and refreshes the TTL.
	Add(ctx context.Context, postID, timestamp int64) error

	// Page returns post IDs newest-first. A nil cursorScore starts from
	// the top; otherwise only posts strictly older than the cursor return.
	Page(ctx context.Context, cursorScore *float64, limit int) (postIDs []int64, scores []float64, err error)

	// Warm bulk-inserts posts, for rebuilding after a cold start.
	Warm(ctx context.Context, posts []PostScore) error

	// Exists reports whether the cache key is present at all.
	Exists(ctx context.Context) (bool, error)

	// Size returns the number of cached post IDs.
	Size(ctx context.Context) (int64, error)
}

// RedisRecentPosts implements RecentPosts on a Redis sorted set.
type RedisRecentPosts struct {
	client *redis.Client
}

// NewRecentPosts creates a RecentPosts cache backed by Redis.
func NewRecentPosts(client *redis.Client) RecentPosts {
	return &RedisRecentPosts{client: client}
}

// Add pipelines ZADD + ZREMRANGEBYRANK (trim to cap) + EXPIRE (refresh TTL).
func (c *RedisRecentPosts) Add(ctx context.Context, postID, timestamp int64) error {
	pipe := c.client.Pipeline()

	pipe.ZAdd(ctx, RecentPostsKey, redis.Z{
		Score:  float64(timestamp),
		Member: strconv.FormatInt(postID, 10),
	})

	// Keep the highest RecentPostsCap scores (newest), drop the rest.
	pipe.ZRemRangeByRank(ctx, RecentPostsKey, 0, int64(-RecentPostsCap-1))

	pipe.Expire(ctx, RecentPostsKey, RecentPostsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RecentPosts] Add FAILED: post=%d err=%v", postID, err)
		return fmt.Errorf("add post to recent cache: %w", err)
	}

	return nil
}

// Page reads newest-first, optionally below an exclusive cursor score.
func (c *RedisRecentPosts) Page(ctx context.Context, cursorScore *float64, limit int) ([]int64, []float64, error) {
	var results []redis.Z
	var err error

	if cursorScore == nil {
		results, err = c.client.ZRevRangeWithScores(ctx, RecentPostsKey, 0, int64(limit-1)).Result()
	} else {
		results, err = c.client.ZRevRangeByScoreWithScores(ctx, RecentPostsKey, &redis.ZRangeBy{
			Min:    "-inf",
			Max:    fmt.Sprintf("(%f", *cursorScore), // exclusive
			Offset: 0,
			Count:  int64(limit),
		}).Result()
	}

	if err != nil {
		log.Printf("[RecentPosts] Page FAILED: err=%v", err)
		return nil, nil, fmt.Errorf("page recent cache: %w", err)
	}

	postIDs := make([]int64, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue // skip malformed members
		}
		postIDs = append(postIDs, id)
		scores = append(scores, z.Score)
	}

	return postIDs, scores, nil
}

// Warm pipelines ZADD for every post, then trims and sets the TTL.
func (c *RedisRecentPosts) Warm(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: strconv.FormatInt(p.PostID, 10),
		}
	}
	pipe.ZAdd(ctx, RecentPostsKey, members...)
	pipe.ZRemRangeByRank(ctx, RecentPostsKey, 0, int64(-RecentPostsCap-1))
	pipe.Expire(ctx, RecentPostsKey, RecentPostsTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RecentPosts] Warm FAILED: count=%d err=%v", len(posts), err)
		return fmt.Errorf("warm recent cache: %w", err)
	}

	log.Printf("[RecentPosts] Warm OK: count=%d", len(posts))
	return nil
}

// Exists checks for the cache key. False means a cold cache that the read
// path should warm from the database.
func (c *RedisRecentPosts) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, RecentPostsKey).Result()
	if err != nil {
		return false, fmt.Errorf("check recent cache: %w", err)
	}
	return n > 0, nil
}

// Size returns the cardinality of the sorted set.
func (c *RedisRecentPosts) Size(ctx context.Context) (int64, error) {
	n, err := c.client.ZCard(ctx, RecentPostsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("recent cache size: %w", err)
	}
	return n, nil
}
