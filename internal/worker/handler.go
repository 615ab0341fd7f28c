package worker

import (
	"context"
	"fmt"
	"log"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/queue"
)

// Handler applies post events to the recent-posts cache so the public
// listing stays warm without touching the write path's latency.
type Handler struct {
	recent cache.RecentPosts
}

// NewHandler creates a new event handler.
func NewHandler(recent cache.RecentPosts) *Handler {
	return &Handler{recent: recent}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.PostEvent) error {
	switch event.Type {
	case queue.EventPostCreated:
		return h.handlePostCreated(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}
}

// handlePostCreated adds the new post to the recent-posts cache. The cache
// trims itself to its cap, so older entries fall off automatically.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.PostEvent) error {
	if err := h.recent.Add(ctx, event.PostID, event.Timestamp); err != nil {
		return fmt.Errorf("add post to recent cache: %w", err)
	}

	log.Printf("[Worker] PostCreated OK: post=%d author=%d", event.PostID, event.AuthorID)
	return nil
}
