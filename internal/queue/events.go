package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the posts stream
const (
	EventPostCreated = "post_created"
)

// Stream names
const (
	StreamPosts = "stream:posts"
)

// Consumer group name for cache workers
const (
	ConsumerGroupPosts = "post_workers"
)

// PostEvent is an event published to the posts stream. The worker uses it
// to keep the recent-posts cache in step with the database.
type PostEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	PostID   int64 `json:"post_id"`
	AuthorID int64 `json:"author_id"`
}

// NewPostCreatedEvent creates the event emitted after a post commit.
func NewPostCreatedEvent(postID, authorID int64) PostEvent {
	return PostEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// ToMap flattens the event to field/value pairs for XADD.
func (e PostEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParsePostEvent rebuilds an event from XREADGROUP values.
func ParsePostEvent(values map[string]interface{}) (PostEvent, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return PostEvent{}, fmt.Errorf("event missing data field")
	}

	var event PostEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return PostEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
