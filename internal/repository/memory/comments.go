package memory

import (
	"context"
	"slices"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

type commentRepository struct {
	s *Store
}

func copyComment(c *model.Comment) *model.Comment {
	cc := *c
	return &cc
}

func (r *commentRepository) byUUID(uuid string) *model.Comment {
	for _, c := range r.s.comments {
		if c.UUID == uuid {
			return c
		}
	}
	return nil
}

func (r *commentRepository) live(targetType, targetUUID string) []*model.Comment {
	return find(r.s.comments, func(c *model.Comment) bool {
		return !c.IsDeleted && c.TargetType == targetType && c.TargetUUID == targetUUID
	})
}

func (r *commentRepository) Create(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.comments = append(r.s.comments, copyComment(c))
	return nil
}

func (r *commentRepository) GetByUUID(_ context.Context, uuid string) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c := r.byUUID(uuid); c != nil {
		return copyComment(c), nil
	}
	return nil, model.ErrCommentNotFound
}

func (r *commentRepository) ListByTarget(_ context.Context, targetType, targetUUID string, page model.Page, sort string) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found := r.live(targetType, targetUUID)
	// insertion order is creation order
	if sort == model.SortDesc {
		slices.Reverse(found)
	}

	start, end := window(len(found), page)
	comments := make([]model.Comment, 0, end-start)
	for _, c := range found[start:end] {
		comments = append(comments, *copyComment(c))
	}
	return comments, nil
}

func (r *commentRepository) CountByTarget(_ context.Context, targetType, targetUUID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.live(targetType, targetUUID))), nil
}

func (r *commentRepository) Update(_ context.Context, in *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.byUUID(in.UUID)
	if c == nil || c.IsDeleted {
		return model.ErrCommentNotFound
	}
	c.Content = in.Content
	c.EditorUUID = in.EditorUUID
	c.EditedAt = in.EditedAt
	return nil
}

func (r *commentRepository) SoftDelete(_ context.Context, uuid, deletedBy string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := r.byUUID(uuid)
	if c == nil || c.IsDeleted {
		return model.ErrCommentNotFound
	}
	c.IsDeleted = true
	c.DeletedBy = deletedBy
	return nil
}
