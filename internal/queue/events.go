package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the blog stream
const (
	EventPostCreated    = "post_created"
	EventPostUpdated    = "post_updated"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
)

// Stream names
const (
	StreamBlog = "stream:blog"
)

// Consumer group name for cache workers
const (
	ConsumerGroupBlog = "blog_workers"
)

// BlogEvent is published after a write so workers can refresh derived state.
// All blog events share this structure.
type BlogEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ActorUUID string `json:"actor_uuid,omitempty"`

	// Post events
	PostUUID string `json:"post_uuid,omitempty"`
	PID      int64  `json:"pid,omitempty"`
	Slug     string `json:"slug,omitempty"`
	OldSlug  string `json:"old_slug,omitempty"`

	// Comment events
	CommentUUID string `json:"comment_uuid,omitempty"`
	TargetType  string `json:"target_type,omitempty"`
	TargetUUID  string `json:"target_uuid,omitempty"`
}

func NewPostCreatedEvent(postUUID string, pid int64, slug, actorUUID string) BlogEvent {
	return BlogEvent{
		Type:      EventPostCreated,
		Timestamp: time.Now().Unix(),
		ActorUUID: actorUUID,
		PostUUID:  postUUID,
		PID:       pid,
		Slug:      slug,
	}
}

// NewPostUpdatedEvent carries the previous slug so stale slug keys can be evicted.
func NewPostUpdatedEvent(postUUID string, pid int64, slug, oldSlug, actorUUID string) BlogEvent {
	return BlogEvent{
		Type:      EventPostUpdated,
		Timestamp: time.Now().Unix(),
		ActorUUID: actorUUID,
		PostUUID:  postUUID,
		PID:       pid,
		Slug:      slug,
		OldSlug:   oldSlug,
	}
}

func NewPostDeletedEvent(postUUID string, pid int64, slug, actorUUID string) BlogEvent {
	return BlogEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		ActorUUID: actorUUID,
		PostUUID:  postUUID,
		PID:       pid,
		Slug:      slug,
	}
}

func NewCommentCreatedEvent(commentUUID, targetType, targetUUID, actorUUID string) BlogEvent {
	return BlogEvent{
		Type:        EventCommentCreated,
		Timestamp:   time.Now().Unix(),
		ActorUUID:   actorUUID,
		CommentUUID: commentUUID,
		TargetType:  targetType,
		TargetUUID:  targetUUID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e BlogEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseBlogEvent parses a BlogEvent from Redis stream message values.
func ParseBlogEvent(values map[string]interface{}) (BlogEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return BlogEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event BlogEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return BlogEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
