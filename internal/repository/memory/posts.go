package memory

import (
	"context"
	"slices"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/model"
)

type postRepository struct {
	s *Store
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	c.AllowedUsers = slices.Clone(p.AllowedUsers)
	c.EditedAt = cloneTime(p.EditedAt)
	return &c
}

func (r *postRepository) slugTaken(slug, exceptUUID string) bool {
	if slug == "" {
		return false
	}
	for _, p := range r.s.posts {
		if !p.IsDeleted && p.Slug == slug && p.UUID != exceptUUID {
			return true
		}
	}
	return false
}

func (r *postRepository) byUUID(uuid string) *model.Post {
	for _, p := range r.s.posts {
		if p.UUID == uuid {
			return p
		}
	}
	return nil
}

func (r *postRepository) Create(_ context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slugTaken(p.Slug, "") {
		return model.ErrSlugTaken
	}
	r.s.lastPID++
	p.PID = r.s.lastPID
	r.s.posts = append(r.s.posts, copyPost(p))
	return nil
}

func (r *postRepository) GetByUUID(_ context.Context, uuid string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p := r.byUUID(uuid); p != nil {
		return copyPost(p), nil
	}
	return nil, model.ErrPostNotFound
}

func (r *postRepository) GetByPID(_ context.Context, pid int64) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.posts {
		if p.PID == pid {
			return copyPost(p), nil
		}
	}
	return nil, model.ErrPostNotFound
}

func (r *postRepository) GetBySlug(_ context.Context, slug string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *model.Post
	for _, p := range r.s.posts {
		if p.Slug != slug {
			continue
		}
		if found == nil || (found.IsDeleted && !p.IsDeleted) || (found.IsDeleted == p.IsDeleted && p.PID > found.PID) {
			found = p
		}
	}
	if found == nil {
		return nil, model.ErrPostNotFound
	}
	return copyPost(found), nil
}

func (r *postRepository) SlugExists(_ context.Context, slug, exceptUUID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.slugTaken(slug, exceptUUID), nil
}

func (r *postRepository) Update(_ context.Context, in *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.byUUID(in.UUID)
	if p == nil || p.IsDeleted {
		return model.ErrPostNotFound
	}
	if r.slugTaken(in.Slug, in.UUID) {
		return model.ErrSlugTaken
	}
	p.Slug = in.Slug
	p.Title = in.Title
	p.Content = in.Content
	p.EditorUUID = in.EditorUUID
	p.AllowComment = in.AllowComment
	p.IsPrivate = in.IsPrivate
	p.AllowedUsers = slices.Clone(in.AllowedUsers)
	p.AllowedAuthority = in.AllowedAuthority
	p.EditedAt = in.EditedAt
	return nil
}

func (r *postRepository) SoftDelete(_ context.Context, uuid, deletedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.byUUID(uuid)
	if p == nil || p.IsDeleted {
		return model.ErrPostNotFound
	}
	p.IsDeleted = true
	p.DeletedBy = deletedBy
	return nil
}

func (r *postRepository) List(_ context.Context, q model.PostQuery, viewHidden int) ([]model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found := find(r.s.posts, func(p *model.Post) bool {
		if p.IsDeleted {
			return false
		}
		if q.AuthorUUID != "" && p.AuthorUUID != q.AuthorUUID {
			return false
		}
		return auth.CanView(q.Viewer, p.Visibility(), viewHidden)
	})
	slices.SortFunc(found, func(a, b *model.Post) int {
		return int(b.PID - a.PID)
	})

	start, end := window(len(found), q.Page)
	posts := make([]model.Post, 0, end-start)
	for _, p := range found[start:end] {
		posts = append(posts, *copyPost(p))
	}
	return posts, nil
}

func (r *postRepository) public() []*model.Post {
	return find(r.s.posts, func(p *model.Post) bool { return !p.IsDeleted && !p.IsPrivate })
}

func (r *postRepository) CountPublic(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.public())), nil
}

func (r *postRepository) LatestPublic(_ context.Context) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var latest *model.Post
	for _, p := range r.public() {
		if latest == nil || p.PID > latest.PID {
			latest = p
		}
	}
	if latest == nil {
		return nil, model.ErrPostNotFound
	}
	return copyPost(latest), nil
}
