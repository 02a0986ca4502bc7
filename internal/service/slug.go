package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

const slugMaxLength = 128

// DeriveSlug transliterates, lowercases and hyphenates s.
// It returns "" when nothing usable is left.
func DeriveSlug(s string) string {
	out := slug.Make(s)
	if len(out) > slugMaxLength {
		out = strings.TrimRight(out[:slugMaxLength], "-")
	}
	return out
}

// SlugAllocator picks post slugs and checks them against live posts.
// Taken slugs are reported, never suffixed.
type SlugAllocator struct {
	posts repository.PostRepository
}

func NewSlugAllocator(posts repository.PostRepository) *SlugAllocator {
	return &SlugAllocator{posts: posts}
}

// Allocate returns the slug for a new post. A nil explicit slug derives one
// from title; an explicit empty string means no slug.
func (a *SlugAllocator) Allocate(ctx context.Context, explicit *string, title string) (string, error) {
	var s string
	if explicit != nil {
		var err error
		if s, err = normalizeExplicit(*explicit); err != nil {
			return "", err
		}
	} else {
		s = DeriveSlug(title)
	}
	return s, a.claim(ctx, s, "")
}

// Reallocate returns the slug for an edited post. Keeping the current slug
// skips the uniqueness check.
func (a *SlugAllocator) Reallocate(ctx context.Context, explicit string, post *model.Post) (string, error) {
	s, err := normalizeExplicit(explicit)
	if err != nil {
		return "", err
	}
	if s == post.Slug {
		return s, nil
	}
	return s, a.claim(ctx, s, post.UUID)
}

func (a *SlugAllocator) claim(ctx context.Context, s, exceptUUID string) error {
	if s == "" {
		return nil
	}
	taken, err := a.posts.SlugExists(ctx, s, exceptUUID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return model.ErrSlugTaken
	}
	return nil
}

func normalizeExplicit(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	s := DeriveSlug(raw)
	if s == "" {
		return "", model.NewValidationError("slug", "slug has no usable characters")
	}
	return s, nil
}
