package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

const commentColumns = `uuid, target_type, target_uuid, content, author_uuid, editor_uuid, is_deleted, deleted_by,
		       created_at, edited_at`

// commentRepository implements CommentRepository using sqlx
type commentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (uuid, target_type, target_uuid, content, author_uuid, editor_uuid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.UUID, c.TargetType, c.TargetUUID, c.Content, c.AuthorUUID, c.EditorUUID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByUUID(ctx context.Context, uuid string) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE uuid = $1`

	var c model.Comment
	if err := r.db.GetContext(ctx, &c, query, uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

func (r *commentRepository) ListByTarget(ctx context.Context, targetType, targetUUID string, page model.Page, sort string) ([]model.Comment, error) {
	order := "ASC"
	if sort == model.SortDesc {
		order = "DESC"
	}
	query := `SELECT ` + commentColumns + ` FROM comments
		WHERE target_type = $1 AND target_uuid = $2 AND NOT is_deleted
		ORDER BY created_at ` + order + `, uuid ` + order + `
		OFFSET $3 LIMIT $4`

	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, targetType, targetUUID, page.Offset, page.Fetch()); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) CountByTarget(ctx context.Context, targetType, targetUUID string) (int64, error) {
	query := `SELECT COUNT(*) FROM comments WHERE target_type = $1 AND target_uuid = $2 AND NOT is_deleted`

	var n int64
	if err := r.db.GetContext(ctx, &n, query, targetType, targetUUID); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

func (r *commentRepository) Update(ctx context.Context, c *model.Comment) error {
	query := `UPDATE comments SET content = $1, editor_uuid = $2, edited_at = $3 WHERE uuid = $4 AND NOT is_deleted`
	res, err := r.db.ExecContext(ctx, query, c.Content, c.EditorUUID, c.EditedAt, c.UUID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return requireRow(res, model.ErrCommentNotFound)
}

func (r *commentRepository) SoftDelete(ctx context.Context, uuid, deletedBy string) error {
	query := `UPDATE comments SET is_deleted = TRUE, deleted_by = $1 WHERE uuid = $2 AND NOT is_deleted`
	res, err := r.db.ExecContext(ctx, query, deletedBy, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireRow(res, model.ErrCommentNotFound)
}
