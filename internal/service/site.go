package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

const (
	configKeyMaxLength = 64
	configValMaxLength = 4096
)

// SiteService serves the landing-page summary and the public config table.
type SiteService struct {
	config     repository.ConfigRepository
	posts      repository.PostRepository
	users      repository.UserRepository
	cache      cache.Cache
	thresholds model.Thresholds
}

func NewSiteService(
	config repository.ConfigRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	metaCache cache.Cache,
	thresholds model.Thresholds,
) *SiteService {
	return &SiteService{
		config:     config,
		posts:      posts,
		users:      users,
		cache:      metaCache,
		thresholds: thresholds,
	}
}

// Meta returns post and user totals, the founding date and the latest public
// post without its content.
func (s *SiteService) Meta(ctx context.Context) (*model.SiteMeta, error) {
	meta, found, err := s.cache.GetMeta(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[SiteService] Meta cache read failed")
	}
	if found {
		return meta, nil
	}

	meta = &model.SiteMeta{}
	if meta.TotalPosts, err = s.posts.CountPublic(ctx); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if meta.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	first, err := s.users.First(ctx)
	switch {
	case err == nil:
		meta.FoundedAt = &first.CreatedAt
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, fmt.Errorf("load first user: %w", err)
	}

	latest, err := s.posts.LatestPublic(ctx)
	switch {
	case err == nil:
		latest.Content = ""
		dir := newUserDirectory(s.users)
		latest.Author = dir.get(ctx, latest.AuthorUUID)
		latest.Editor = dir.get(ctx, latest.EditorUUID)
		meta.LatestPost = latest
	case !errors.Is(err, model.ErrPostNotFound):
		return nil, fmt.Errorf("load latest post: %w", err)
	}

	if err := s.cache.SetMeta(ctx, meta); err != nil {
		log.Warn().Err(err).Msg("[SiteService] Meta cache write failed")
	}
	return meta, nil
}

// Config returns every config row except reserved ones.
func (s *SiteService) Config(ctx context.Context) (map[string]string, error) {
	all, err := s.config.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	out := maps.Clone(all)
	delete(out, model.ConfigSecret)
	return out, nil
}

// Value returns a config value, falling back to the seeded default.
func (s *SiteService) Value(ctx context.Context, key string) string {
	val, err := s.config.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, model.ErrConfigNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("[SiteService] Config read failed")
		}
		return model.DefaultSiteConfig[key]
	}
	return val
}

// SetConfig writes one config row. Requires SiteAdmin.
func (s *SiteService) SetConfig(ctx context.Context, viewer *model.User, key string, req *model.SetConfigRequest) error {
	if err := auth.Require(viewer, s.thresholds.SiteAdmin); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" || len(key) > configKeyMaxLength {
		return model.NewValidationError("key", fmt.Sprintf("key must be 1-%d characters", configKeyMaxLength))
	}
	if key == model.ConfigSecret {
		return model.ErrConfigReserved
	}
	if req.Val == nil {
		return model.NewValidationError("val", "val is required")
	}
	if len(*req.Val) > configValMaxLength {
		return model.NewValidationError("val", fmt.Sprintf("val must be at most %d bytes", configValMaxLength))
	}

	if err := s.config.Set(ctx, key, *req.Val); err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	log.Info().Str("key", key).Str("by", viewer.UUID).Msg("[SiteService] Config updated")
	return nil
}
