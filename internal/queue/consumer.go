package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Message represents a message read from a Redis stream.
type Message struct {
	ID    string
	Event BlogEvent
}

// Consumer defines the interface for consuming events from a stream.
type Consumer interface {
	// EnsureGroup creates the consumer group if it doesn't exist.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns up to count new messages for this consumer, blocking for
	// at most block when the stream is empty.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never acknowledged.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	// Ack removes messages from the consumer's pending list.
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
}

// NewConsumer creates a new Consumer backed by Redis Streams.
func NewConsumer(client *redis.Client) Consumer {
	return &RedisConsumer{client: client}
}

// EnsureGroup runs XGROUP CREATE ... MKSTREAM starting at "0".
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			log.Debug().Str("stream", stream).Str("group", group).Msg("[Consumer] EnsureGroup: already exists")
			return nil
		}
		log.Error().Err(err).Str("stream", stream).Str("group", group).Msg("[Consumer] EnsureGroup FAILED")
		return fmt.Errorf("create consumer group: %w", err)
	}

	log.Info().Str("stream", stream).Str("group", group).Msg("[Consumer] EnsureGroup OK: created")
	return nil
}

// Read reads undelivered messages (">") using XREADGROUP.
func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	})
}

// ReadPending reads from "0", which yields this consumer's pending entries.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	return c.read(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	})
}

func (c *RedisConsumer) read(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, error) {
	startTime := time.Now()

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Strs("streams", args.Streams).Str("consumer", args.Consumer).Msg("[Consumer] Read FAILED")
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	messages := parseMessages(streams)
	log.Debug().
		Strs("streams", args.Streams).
		Str("consumer", args.Consumer).
		Int("count", len(messages)).
		Dur("duration", time.Since(startTime)).
		Msg("[Consumer] Read OK")
	return messages, nil
}

// parseMessages skips malformed entries; they are never acknowledged and
// stay visible in XPENDING for inspection.
func parseMessages(streams []redis.XStream) []Message {
	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseBlogEvent(msg.Values)
			if err != nil {
				log.Warn().Err(err).Str("msg_id", msg.ID).Msg("[Consumer] Skipping malformed message")
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages
}

// Ack acknowledges messages using XACK.
func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	acked, err := c.client.XAck(ctx, stream, group, messageIDs...).Result()
	if err != nil {
		log.Error().Err(err).Str("stream", stream).Strs("ids", messageIDs).Msg("[Consumer] Ack FAILED")
		return fmt.Errorf("xack: %w", err)
	}

	log.Debug().Str("stream", stream).Int64("acked", acked).Msg("[Consumer] Ack OK")
	return nil
}
