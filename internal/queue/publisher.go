package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event BlogEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD with an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event BlogEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("[Publisher] Publish FAILED")
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("[Publisher] Publish FAILED")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debug().
		Str("stream", stream).
		Str("type", event.Type).
		Str("msg_id", messageID).
		Str("post", event.PostUUID).
		Str("comment", event.CommentUUID).
		Dur("duration", time.Since(startTime)).
		Msg("[Publisher] Publish OK")

	return messageID, nil
}

// NopPublisher drops every event. It stands in when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, BlogEvent) (string, error) {
	return "", nil
}
