package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const postColumns = `uuid, pid, slug, title, content, author_uuid, editor_uuid, allow_comment, is_deleted,
		       deleted_by, is_private, allowed_users, allowed_authority, created_at, edited_at`

const pidSeed = `SELECT COALESCE(MAX(pid), 0) + 1 FROM posts`

const slugConstraint = "posts_slug_key"

// visibleTo mirrors auth.CanView for non-deleted posts. $1 is the viewer
// uuid ('' when anonymous), $2 its authority and $3 the view-hidden level.
const visibleTo = `NOT is_deleted AND (
			NOT is_private
			OR ($1 <> '' AND author_uuid = $1)
			OR ($1 <> '' AND $1 = ANY(allowed_users))
			OR ($1 <> '' AND allowed_authority > 0 AND $2 >= allowed_authority)
			OR ($1 <> '' AND $2 >= $3)
		)`

// postRepository implements PostRepository using sqlx
type postRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post with the next pid inside one transaction.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pid, err := nextValue(ctx, tx, counterPID, pidSeed)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (uuid, pid, slug, title, content, author_uuid, editor_uuid, allow_comment,
		                   is_private, allowed_users, allowed_authority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, query,
		p.UUID, pid, p.Slug, p.Title, p.Content, p.AuthorUUID, p.EditorUUID, p.AllowComment,
		p.IsPrivate, allowedUsers(p), p.AllowedAuthority, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, slugConstraint) {
			return model.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post: %w", err)
	}
	p.PID = pid
	return nil
}

func (r *postRepository) getOne(ctx context.Context, where string, args ...interface{}) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + where

	var p model.Post
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &p, nil
}

// GetByUUID returns the post even when deleted; visibility is the caller's call.
func (r *postRepository) GetByUUID(ctx context.Context, uuid string) (*model.Post, error) {
	return r.getOne(ctx, `uuid = $1`, uuid)
}

func (r *postRepository) GetByPID(ctx context.Context, pid int64) (*model.Post, error) {
	return r.getOne(ctx, `pid = $1`, pid)
}

// GetBySlug prefers the live post owning the slug over deleted ones.
func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.getOne(ctx, `slug = $1 ORDER BY is_deleted ASC, pid DESC LIMIT 1`, slug)
}

func (r *postRepository) SlugExists(ctx context.Context, slug, exceptUUID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND NOT is_deleted AND uuid <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, slug, exceptUUID); err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return exists, nil
}

func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts
		SET slug = $1, title = $2, content = $3, editor_uuid = $4, allow_comment = $5,
		    is_private = $6, allowed_users = $7, allowed_authority = $8, edited_at = $9
		WHERE uuid = $10 AND NOT is_deleted
	`
	res, err := r.db.ExecContext(ctx, query,
		p.Slug, p.Title, p.Content, p.EditorUUID, p.AllowComment,
		p.IsPrivate, allowedUsers(p), p.AllowedAuthority, p.EditedAt, p.UUID,
	)
	if err != nil {
		if isUniqueViolation(err, slugConstraint) {
			return model.ErrSlugTaken
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireRow(res, model.ErrPostNotFound)
}

func (r *postRepository) SoftDelete(ctx context.Context, uuid, deletedBy string) error {
	query := `UPDATE posts SET is_deleted = TRUE, deleted_by = $1 WHERE uuid = $2 AND NOT is_deleted`
	res, err := r.db.ExecContext(ctx, query, deletedBy, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireRow(res, model.ErrPostNotFound)
}

func (r *postRepository) List(ctx context.Context, q model.PostQuery, viewHidden int) ([]model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + visibleTo + `
		AND ($4 = '' OR author_uuid = $4)
		ORDER BY pid DESC
		OFFSET $5 LIMIT $6`

	posts := []model.Post{}
	err := r.db.SelectContext(ctx, &posts, query,
		q.Viewer.UUID, q.Viewer.Authority, viewHidden, q.AuthorUUID, q.Page.Offset, q.Page.Fetch())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) CountPublic(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE NOT is_deleted AND NOT is_private`); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func (r *postRepository) LatestPublic(ctx context.Context) (*model.Post, error) {
	return r.getOne(ctx, `NOT is_deleted AND NOT is_private ORDER BY pid DESC LIMIT 1`)
}

// allowedUsers never binds NULL to the NOT NULL array column.
func allowedUsers(p *model.Post) pq.StringArray {
	if p.AllowedUsers == nil {
		return pq.StringArray{}
	}
	return p.AllowedUsers
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
