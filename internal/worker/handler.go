package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/metrics"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
)

// PostLoader abstracts the post repository so workers read posts without
// depending on the storage driver.
type PostLoader interface {
	GetByUUID(ctx context.Context, uuid string) (*model.Post, error)
}

// Handler keeps the read cache in step with blog events.
type Handler struct {
	posts PostLoader
	cache cache.Cache
}

// NewHandler creates a new event handler.
func NewHandler(posts PostLoader, postCache cache.Cache) *Handler {
	return &Handler{posts: posts, cache: postCache}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.BlogEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated, queue.EventPostUpdated:
		err = h.handlePostWritten(ctx, event)
	case queue.EventPostDeleted:
		err = h.handlePostDeleted(ctx, event)
	case queue.EventCommentCreated:
		err = h.handleCommentCreated(ctx, event)
	default:
		log.Warn().Str("type", event.Type).Msg("[Handler] Unknown event type")
		metrics.EventsProcessedTotal.WithLabelValues(event.Type, "skipped").Inc()
		return nil
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EventsProcessedTotal.WithLabelValues(event.Type, result).Inc()

	log.Debug().
		Str("type", event.Type).
		Dur("took", time.Since(startTime)).
		Err(err).
		Msg("[Handler] Event handled")
	return err
}

// handlePostWritten re-warms the cache with the stored post. A renamed post
// drops its old slug key first.
func (h *Handler) handlePostWritten(ctx context.Context, event queue.BlogEvent) error {
	if event.OldSlug != "" && event.OldSlug != event.Slug {
		if err := h.cache.EvictPost(ctx, event.PostUUID, event.PID, event.OldSlug); err != nil {
			return fmt.Errorf("evict old slug: %w", err)
		}
	}

	post, err := h.posts.GetByUUID(ctx, event.PostUUID)
	if errors.Is(err, model.ErrPostNotFound) {
		log.Warn().Str("post", event.PostUUID).Msg("[Handler] Post vanished before cache warm")
		return h.cache.EvictPost(ctx, event.PostUUID, event.PID, event.Slug)
	}
	if err != nil {
		return fmt.Errorf("load post %s: %w", event.PostUUID, err)
	}

	if err := h.cache.SetPost(ctx, post); err != nil {
		return fmt.Errorf("warm post: %w", err)
	}
	return h.cache.EvictMeta(ctx)
}

func (h *Handler) handlePostDeleted(ctx context.Context, event queue.BlogEvent) error {
	if err := h.cache.EvictPost(ctx, event.PostUUID, event.PID, event.Slug); err != nil {
		return fmt.Errorf("evict post: %w", err)
	}
	return h.cache.EvictMeta(ctx)
}

func (h *Handler) handleCommentCreated(_ context.Context, event queue.BlogEvent) error {
	log.Info().
		Str("comment", event.CommentUUID).
		Str("target_type", event.TargetType).
		Str("target", event.TargetUUID).
		Str("actor", event.ActorUUID).
		Msg("[Handler] Comment created")
	return nil
}
