package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/metrics"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

const (
	postTitleMaxLength = 256

	// FeedSize is the number of posts rendered into RSS and Atom feeds
	FeedSize = 25
)

type PostService struct {
	posts      repository.PostRepository
	users      repository.UserRepository
	slugs      *SlugAllocator
	cache      cache.Cache
	publisher  queue.Publisher
	thresholds model.Thresholds
	now        func() time.Time
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	postCache cache.Cache,
	publisher queue.Publisher,
	thresholds model.Thresholds,
) *PostService {
	return &PostService{
		posts:      posts,
		users:      users,
		slugs:      NewSlugAllocator(posts),
		cache:      postCache,
		publisher:  publisher,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Get returns the post identified by selector and value if viewer may see it.
// Hidden posts are reported as not found.
func (s *PostService) Get(ctx context.Context, viewer *model.User, selector, value string) (*model.Post, error) {
	if err := validatePostSelector(selector, value); err != nil {
		return nil, err
	}

	post, found, err := s.cache.GetPost(ctx, selector, value)
	if err != nil {
		log.Warn().Err(err).Msg("[PostService] Cache read failed, falling back to storage")
	}
	if !found {
		if post, err = s.load(ctx, selector, value); err != nil {
			return nil, err
		}
		if err := s.cache.SetPost(ctx, post); err != nil {
			log.Warn().Err(err).Str("post", post.UUID).Msg("[PostService] Cache write failed")
		}
	}

	if !auth.CanView(model.ViewerOf(viewer), post.Visibility(), s.thresholds.ViewHidden) {
		return nil, model.ErrPostNotFound
	}
	s.attachUsers(ctx, newUserDirectory(s.users), post)
	return post, nil
}

func validatePostSelector(selector, value string) error {
	switch selector {
	case model.PostSelectorUUID, model.PostSelectorSlug:
		return nil
	case model.PostSelectorPID:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return model.NewValidationError("pid", "pid must be an integer")
		}
		return nil
	default:
		return model.NewValidationError("selector", "selector must be one of uuid, pid, slug")
	}
}

// load reads a post from storage, bypassing the cache.
func (s *PostService) load(ctx context.Context, selector, value string) (*model.Post, error) {
	switch selector {
	case model.PostSelectorUUID:
		return s.posts.GetByUUID(ctx, value)
	case model.PostSelectorPID:
		pid, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, model.NewValidationError("pid", "pid must be an integer")
		}
		return s.posts.GetByPID(ctx, pid)
	case model.PostSelectorSlug:
		return s.posts.GetBySlug(ctx, value)
	default:
		return nil, model.NewValidationError("selector", "selector must be one of uuid, pid, slug")
	}
}

// Create publishes a new post authored by viewer.
func (s *PostService) Create(ctx context.Context, viewer *model.User, req *model.CreatePostRequest) (*model.Post, error) {
	if err := auth.Require(viewer, s.thresholds.PostCreate); err != nil {
		return nil, err
	}
	if req.Title == nil {
		return nil, model.NewValidationError("title", "title is required")
	}
	if req.Content == nil {
		return nil, model.NewValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(*req.Title) > postTitleMaxLength {
		return nil, model.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", postTitleMaxLength))
	}

	slug, err := s.slugs.Allocate(ctx, req.Slug, *req.Title)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		UUID:         uuid.NewString(),
		Slug:         slug,
		Title:        *req.Title,
		Content:      *req.Content,
		AuthorUUID:   viewer.UUID,
		EditorUUID:   viewer.UUID,
		AllowComment: true,
		AllowedUsers: pq.StringArray{},
		CreatedAt:    s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, model.ErrSlugTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	metrics.PostsCreatedTotal.Inc()
	log.Info().Str("post", post.UUID).Int64("pid", post.PID).Str("slug", post.Slug).Msg("[PostService] Created")

	s.invalidateMeta(ctx)
	s.publish(ctx, queue.NewPostCreatedEvent(post.UUID, post.PID, post.Slug, viewer.UUID))

	s.attachUsers(ctx, newUserDirectory(s.users), post)
	return post, nil
}

// Update edits a post. The author may always edit, anyone else needs
// PostEditAny.
func (s *PostService) Update(ctx context.Context, viewer *model.User, selector, value string, req *model.UpdatePostRequest) (*model.Post, error) {
	if viewer == nil {
		return nil, model.ErrAuthRequired
	}
	post, err := s.loadVisible(ctx, viewer, selector, value)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOr(viewer, post.AuthorUUID, s.thresholds.PostEditAny); err != nil {
		return nil, err
	}

	oldSlug := post.Slug
	if req.Title != nil {
		if utf8.RuneCountInString(*req.Title) > postTitleMaxLength {
			return nil, model.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", postTitleMaxLength))
		}
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Slug != nil {
		if post.Slug, err = s.slugs.Reallocate(ctx, *req.Slug, post); err != nil {
			return nil, err
		}
	}
	if req.AllowComment != nil {
		post.AllowComment = *req.AllowComment
	}
	if req.IsPrivate != nil {
		post.IsPrivate = *req.IsPrivate
	}
	if req.AllowedUsers != nil {
		if post.AllowedUsers, err = normalizeAllowedUsers(*req.AllowedUsers); err != nil {
			return nil, err
		}
	}
	if req.AllowedAuthority != nil {
		a := *req.AllowedAuthority
		if a < model.AuthorityEveryone || a > model.AuthoritySysop {
			return nil, model.NewValidationError("allowed_authority", "allowed_authority must be between 0 and 4")
		}
		post.AllowedAuthority = a
	}

	now := s.now()
	post.EditorUUID = viewer.UUID
	post.EditedAt = &now

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, model.ErrSlugTaken) || errors.Is(err, model.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	log.Info().Str("post", post.UUID).Str("editor", viewer.UUID).Msg("[PostService] Updated")

	s.invalidatePost(ctx, post, oldSlug)
	s.publish(ctx, queue.NewPostUpdatedEvent(post.UUID, post.PID, post.Slug, oldSlug, viewer.UUID))

	s.attachUsers(ctx, newUserDirectory(s.users), post)
	return post, nil
}

// Delete soft-deletes a post. The author may always delete, anyone else
// needs PostDeleteAny.
func (s *PostService) Delete(ctx context.Context, viewer *model.User, selector, value string) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	post, err := s.loadVisible(ctx, viewer, selector, value)
	if err != nil {
		return err
	}
	if post.IsDeleted {
		return model.ErrPostNotFound
	}
	if err := auth.RequireOwnerOr(viewer, post.AuthorUUID, s.thresholds.PostDeleteAny); err != nil {
		return err
	}

	if err := s.posts.SoftDelete(ctx, post.UUID, viewer.UUID); err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}
	log.Info().Str("post", post.UUID).Str("by", viewer.UUID).Msg("[PostService] Deleted")

	s.invalidatePost(ctx, post)
	s.publish(ctx, queue.NewPostDeletedEvent(post.UUID, post.PID, post.Slug, viewer.UUID))
	return nil
}

func (s *PostService) loadVisible(ctx context.Context, viewer *model.User, selector, value string) (*model.Post, error) {
	post, err := s.load(ctx, selector, value)
	if err != nil {
		return nil, err
	}
	if !auth.CanView(model.ViewerOf(viewer), post.Visibility(), s.thresholds.ViewHidden) {
		return nil, model.ErrPostNotFound
	}
	return post, nil
}

// ListRecent returns a page of visible posts, newest pid first.
func (s *PostService) ListRecent(ctx context.Context, viewer *model.User, page model.Page) (*model.PostListResponse, error) {
	return s.list(ctx, model.PostQuery{Viewer: model.ViewerOf(viewer), Page: page})
}

// ListByAuthor returns a page of the author's visible posts.
func (s *PostService) ListByAuthor(ctx context.Context, viewer *model.User, authorUUID string, page model.Page) (*model.PostListResponse, error) {
	if _, err := s.users.GetByUUID(ctx, authorUUID); err != nil {
		return nil, err
	}
	return s.list(ctx, model.PostQuery{Viewer: model.ViewerOf(viewer), AuthorUUID: authorUUID, Page: page})
}

func (s *PostService) list(ctx context.Context, q model.PostQuery) (*model.PostListResponse, error) {
	posts, err := s.posts.List(ctx, q, s.thresholds.ViewHidden)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	hasNext := len(posts) > q.Page.Limit
	if hasNext {
		posts = posts[:q.Page.Limit]
	}

	dir := newUserDirectory(s.users)
	for i := range posts {
		s.attachUsers(ctx, dir, &posts[i])
	}

	return &model.PostListResponse{
		Posts:   posts,
		Offset:  q.Page.Offset,
		Limit:   q.Page.Limit,
		HasNext: hasNext,
	}, nil
}

// Feed returns the newest public posts for syndication.
func (s *PostService) Feed(ctx context.Context) ([]model.Post, error) {
	resp, err := s.list(ctx, model.PostQuery{Page: model.NewPage(0, FeedSize)})
	if err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (s *PostService) attachUsers(ctx context.Context, dir *userDirectory, p *model.Post) {
	p.Author = dir.get(ctx, p.AuthorUUID)
	p.Editor = dir.get(ctx, p.EditorUUID)
}

func (s *PostService) invalidatePost(ctx context.Context, p *model.Post, extraSlugs ...string) {
	slugs := append([]string{p.Slug}, extraSlugs...)
	if err := s.cache.EvictPost(ctx, p.UUID, p.PID, slugs...); err != nil {
		log.Warn().Err(err).Str("post", p.UUID).Msg("[PostService] Cache eviction failed")
	}
	s.invalidateMeta(ctx)
}

func (s *PostService) invalidateMeta(ctx context.Context) {
	if err := s.cache.EvictMeta(ctx); err != nil {
		log.Warn().Err(err).Msg("[PostService] Meta cache eviction failed")
	}
}

// publish is best effort; the write already succeeded.
func (s *PostService) publish(ctx context.Context, event queue.BlogEvent) {
	msgID, err := s.publisher.Publish(ctx, queue.StreamBlog, event)
	if err != nil {
		log.Warn().Err(err).Str("type", event.Type).Str("post", event.PostUUID).Msg("[PostService] Failed to publish event")
		return
	}
	if msgID != "" {
		log.Debug().Str("type", event.Type).Str("msg_id", msgID).Msg("[PostService] Published event")
	}
}

func normalizeAllowedUsers(in []string) (pq.StringArray, error) {
	out := make(pq.StringArray, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, id := range in {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, model.NewValidationError("allowed_users", fmt.Sprintf("%q is not a user uuid", id))
		}
		if s := parsed.String(); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}
