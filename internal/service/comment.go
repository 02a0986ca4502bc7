package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

type CommentService struct {
	comments   repository.CommentRepository
	posts      repository.PostRepository
	users      repository.UserRepository
	publisher  queue.Publisher
	thresholds model.Thresholds
	now        func() time.Time
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	publisher queue.Publisher,
	thresholds model.Thresholds,
) *CommentService {
	return &CommentService{
		comments:   comments,
		posts:      posts,
		users:      users,
		publisher:  publisher,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// maxReplyDepth bounds the walk from a reply up to its root target.
const maxReplyDepth = 64

// resolveTarget checks that the commented entity exists, is live and is
// visible to viewer. Replies inherit the visibility of the thread's root.
// It reports whether the target accepts new comments.
func (s *CommentService) resolveTarget(ctx context.Context, viewer *model.User, targetType, targetUUID string) (bool, error) {
	return s.resolveTargetAt(ctx, viewer, targetType, targetUUID, 0)
}

func (s *CommentService) resolveTargetAt(ctx context.Context, viewer *model.User, targetType, targetUUID string, depth int) (bool, error) {
	switch targetType {
	case model.TargetUser:
		u, err := s.users.GetByUUID(ctx, targetUUID)
		if errors.Is(err, model.ErrUserNotFound) {
			return false, model.ErrTargetNotFound
		}
		if err != nil {
			return false, fmt.Errorf("load target user: %w", err)
		}
		return u.AllowComment, nil

	case model.TargetPost:
		p, err := s.posts.GetByUUID(ctx, targetUUID)
		if errors.Is(err, model.ErrPostNotFound) {
			return false, model.ErrTargetNotFound
		}
		if err != nil {
			return false, fmt.Errorf("load target post: %w", err)
		}
		if p.IsDeleted || !auth.CanView(model.ViewerOf(viewer), p.Visibility(), s.thresholds.ViewHidden) {
			return false, model.ErrTargetNotFound
		}
		return p.AllowComment, nil

	case model.TargetComment:
		c, err := s.comments.GetByUUID(ctx, targetUUID)
		if errors.Is(err, model.ErrCommentNotFound) {
			return false, model.ErrTargetNotFound
		}
		if err != nil {
			return false, fmt.Errorf("load target comment: %w", err)
		}
		if c.IsDeleted || depth >= maxReplyDepth {
			return false, model.ErrTargetNotFound
		}
		if _, err := s.resolveTargetAt(ctx, viewer, c.TargetType, c.TargetUUID, depth+1); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, model.NewValidationError("target_type", "target_type must be one of user, post, comment")
	}
}

// List returns a page of live comments on a visible target.
func (s *CommentService) List(ctx context.Context, viewer *model.User, targetType, targetUUID string, page model.Page, sort string) (*model.CommentListResponse, error) {
	if _, err := s.resolveTarget(ctx, viewer, targetType, targetUUID); err != nil {
		return nil, err
	}
	sort = model.NormalizeSort(sort)

	comments, err := s.comments.ListByTarget(ctx, targetType, targetUUID, page, sort)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	total, err := s.comments.CountByTarget(ctx, targetType, targetUUID)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	hasNext := len(comments) > page.Limit
	if hasNext {
		comments = comments[:page.Limit]
	}
	dir := newUserDirectory(s.users)
	for i := range comments {
		attachCommentUsers(ctx, dir, &comments[i])
	}

	return &model.CommentListResponse{
		Comments:      comments,
		Filter:        model.CommentFilter{TargetType: targetType, TargetUUID: targetUUID},
		TotalComments: total,
		Offset:        page.Offset,
		Limit:         page.Limit,
		Sort:          sort,
		HasNext:       hasNext,
	}, nil
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", model.NewValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return "", model.ErrCommentTooLong
	}
	return content, nil
}

// Create comments on a target as viewer.
func (s *CommentService) Create(ctx context.Context, viewer *model.User, targetType, targetUUID string, req *model.CreateCommentRequest) (*model.Comment, error) {
	if err := auth.Require(viewer, s.thresholds.CommentCreate); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	open, err := s.resolveTarget(ctx, viewer, targetType, targetUUID)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, model.ErrCommentsClosed
	}

	c := &model.Comment{
		UUID:       uuid.NewString(),
		TargetType: targetType,
		TargetUUID: targetUUID,
		Content:    content,
		AuthorUUID: viewer.UUID,
		EditorUUID: viewer.UUID,
		CreatedAt:  s.now(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	log.Info().Str("comment", c.UUID).Str("target", targetType+"/"+targetUUID).Msg("[CommentService] Created")

	event := queue.NewCommentCreatedEvent(c.UUID, targetType, targetUUID, viewer.UUID)
	if _, err := s.publisher.Publish(ctx, queue.StreamBlog, event); err != nil {
		log.Warn().Err(err).Str("comment", c.UUID).Msg("[CommentService] Failed to publish event")
	}

	attachCommentUsers(ctx, newUserDirectory(s.users), c)
	return c, nil
}

func (s *CommentService) loadLive(ctx context.Context, commentUUID string) (*model.Comment, error) {
	c, err := s.comments.GetByUUID(ctx, commentUUID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}

// Update replaces the content of a comment. The author may always edit,
// anyone else needs CommentEditAny.
func (s *CommentService) Update(ctx context.Context, viewer *model.User, commentUUID string, req *model.UpdateCommentRequest) (*model.Comment, error) {
	if viewer == nil {
		return nil, model.ErrAuthRequired
	}
	c, err := s.loadLive(ctx, commentUUID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOr(viewer, c.AuthorUUID, s.thresholds.CommentEditAny); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.Content = content
	c.EditorUUID = viewer.UUID
	c.EditedAt = &now
	if err := s.comments.Update(ctx, c); err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update comment: %w", err)
	}

	attachCommentUsers(ctx, newUserDirectory(s.users), c)
	return c, nil
}

// Delete soft-deletes a comment. The author may always delete, anyone else
// needs CommentDeleteAny.
func (s *CommentService) Delete(ctx context.Context, viewer *model.User, commentUUID string) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	c, err := s.loadLive(ctx, commentUUID)
	if err != nil {
		return err
	}
	if err := auth.RequireOwnerOr(viewer, c.AuthorUUID, s.thresholds.CommentDeleteAny); err != nil {
		return err
	}

	if err := s.comments.SoftDelete(ctx, c.UUID, viewer.UUID); err != nil {
		if errors.Is(err, model.ErrCommentNotFound) {
			return err
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	log.Info().Str("comment", c.UUID).Str("by", viewer.UUID).Msg("[CommentService] Deleted")
	return nil
}

func attachCommentUsers(ctx context.Context, dir *userDirectory, c *model.Comment) {
	c.Author = dir.get(ctx, c.AuthorUUID)
	c.Editor = dir.get(ctx, c.EditorUUID)
}
