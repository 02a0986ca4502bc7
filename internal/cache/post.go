package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const (
	// PostCachePrefix is the key prefix for cached posts, followed by
	// the selector and its value, e.g. "post:slug:hello-world".
	PostCachePrefix = "post:"

	// PostCacheTTL bounds how long a cached post may outlive a missed eviction
	PostCacheTTL = 10 * time.Minute

	// MetaCacheKey holds the rendered site meta
	MetaCacheKey = "site:meta"

	// MetaCacheTTL is short because comment and user counts are not evented
	MetaCacheTTL = time.Minute
)

// Cache stores read-mostly blog state. Misses are reported with found=false
// and a nil error; callers fall back to the repository.
type Cache interface {
	// GetPost looks a post up by selector (uuid, pid or slug).
	GetPost(ctx context.Context, selector, value string) (post *model.Post, found bool, err error)

	// SetPost stores p under all of its selectors.
	SetPost(ctx context.Context, p *model.Post) error

	// EvictPost drops every key of a post. Extra slugs cover renamed posts.
	EvictPost(ctx context.Context, uuid string, pid int64, slugs ...string) error

	GetMeta(ctx context.Context) (meta *model.SiteMeta, found bool, err error)
	SetMeta(ctx context.Context, meta *model.SiteMeta) error
	EvictMeta(ctx context.Context) error
}

// RedisCache implements Cache with plain string keys holding JSON.
type RedisCache struct {
	client *redis.Client
}

// NewCache creates a new Cache backed by Redis.
func NewCache(client *redis.Client) Cache {
	return &RedisCache{client: client}
}

func postKey(selector, value string) string {
	return PostCachePrefix + selector + ":" + value
}

// postKeys returns the keys a post is reachable under. Posts without a slug
// are not cached by slug.
func postKeys(uuid string, pid int64, slugs ...string) []string {
	keys := []string{
		postKey(model.PostSelectorUUID, uuid),
		postKey(model.PostSelectorPID, strconv.FormatInt(pid, 10)),
	}
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, postKey(model.PostSelectorSlug, s))
		}
	}
	return keys
}

func (c *RedisCache) GetPost(ctx context.Context, selector, value string) (*model.Post, bool, error) {
	key := postKey(selector, value)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Debug().Str("key", key).Msg("[PostCache] GetPost: MISS")
		return nil, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[PostCache] GetPost FAILED")
		return nil, false, fmt.Errorf("get post: %w", err)
	}

	var p model.Post
	if err := json.Unmarshal(data, &p); err != nil {
		// A stale encoding is treated as a miss and overwritten on the next set.
		log.Warn().Err(err).Str("key", key).Msg("[PostCache] GetPost: undecodable entry")
		return nil, false, nil
	}

	log.Debug().Str("key", key).Msg("[PostCache] GetPost: HIT")
	return &p, true, nil
}

// SetPost writes all selector keys in one pipeline.
func (c *RedisCache) SetPost(ctx context.Context, p *model.Post) error {
	startTime := time.Now()

	stored := *p
	stored.Author, stored.Editor = nil, nil
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, key := range postKeys(p.UUID, p.PID, p.Slug) {
		pipe.Set(ctx, key, data, PostCacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("post", p.UUID).Msg("[PostCache] SetPost FAILED")
		return fmt.Errorf("set post: %w", err)
	}

	log.Debug().Str("post", p.UUID).Int64("pid", p.PID).Dur("duration", time.Since(startTime)).Msg("[PostCache] SetPost OK")
	return nil
}

func (c *RedisCache) EvictPost(ctx context.Context, uuid string, pid int64, slugs ...string) error {
	keys := postKeys(uuid, pid, slugs...)

	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		log.Error().Err(err).Str("post", uuid).Msg("[PostCache] EvictPost FAILED")
		return fmt.Errorf("evict post: %w", err)
	}

	log.Debug().Str("post", uuid).Int64("removed", removed).Msg("[PostCache] EvictPost OK")
	return nil
}

func (c *RedisCache) GetMeta(ctx context.Context) (*model.SiteMeta, bool, error) {
	data, err := c.client.Get(ctx, MetaCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("[MetaCache] GetMeta FAILED")
		return nil, false, fmt.Errorf("get meta: %w", err)
	}

	var meta model.SiteMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Warn().Err(err).Msg("[MetaCache] GetMeta: undecodable entry")
		return nil, false, nil
	}
	return &meta, true, nil
}

func (c *RedisCache) SetMeta(ctx context.Context, meta *model.SiteMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := c.client.Set(ctx, MetaCacheKey, data, MetaCacheTTL).Err(); err != nil {
		log.Error().Err(err).Msg("[MetaCache] SetMeta FAILED")
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

func (c *RedisCache) EvictMeta(ctx context.Context) error {
	if err := c.client.Del(ctx, MetaCacheKey).Err(); err != nil {
		log.Error().Err(err).Msg("[MetaCache] EvictMeta FAILED")
		return fmt.Errorf("evict meta: %w", err)
	}
	return nil
}

// Nop is the Cache used when Redis is not configured. Every read misses.
type Nop struct{}

func (Nop) GetPost(context.Context, string, string) (*model.Post, bool, error) { return nil, false, nil }
func (Nop) SetPost(context.Context, *model.Post) error { return nil }
func (Nop) EvictPost(context.Context, string, int64, ...string) error { return nil }
func (Nop) GetMeta(context.Context) (*model.SiteMeta, bool, error) { return nil, false, nil }
func (Nop) SetMeta(context.Context, *model.SiteMeta) error { return nil }
func (Nop) EvictMeta(context.Context) error { return nil }
