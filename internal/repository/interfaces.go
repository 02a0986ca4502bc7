package repository

import (
	"context"
	"time"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

type UserRepository interface {
	// Create allocates the next uid and inserts u. A case-insensitive
	// username clash returns model.ErrUsernameExists.
	Create(ctx context.Context, u *model.User) error
	GetByUUID(ctx context.Context, uuid string) (*model.User, error)
	GetByUID(ctx context.Context, uid int64) (*model.User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateSession(ctx context.Context, uuid, token string, expires, lastActive time.Time) error
	ClearSession(ctx context.Context, uuid string) error
	// UpdateCredentials rewrites username and password material and clears the session.
	UpdateCredentials(ctx context.Context, uuid, username, salt, passwordHash string) error
	UpdateProfile(ctx context.Context, u *model.User) error
	Count(ctx context.Context) (int64, error)
	// First returns the earliest registered account.
	First(ctx context.Context) (*model.User, error)
}

type PostRepository interface {
	// Create allocates the next pid and inserts p. A clash on a non-empty
	// slug returns model.ErrSlugTaken.
	Create(ctx context.Context, p *model.Post) error
	GetByUUID(ctx context.Context, uuid string) (*model.Post, error)
	GetByPID(ctx context.Context, pid int64) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	// SlugExists ignores deleted posts and the post identified by exceptUUID.
	SlugExists(ctx context.Context, slug, exceptUUID string) (bool, error)
	Update(ctx context.Context, p *model.Post) error
	SoftDelete(ctx context.Context, uuid, deletedBy string) error
	// List returns up to q.Page.Fetch() non-deleted posts visible to
	// q.Viewer, newest pid first.
	List(ctx context.Context, q model.PostQuery, viewHidden int) ([]model.Post, error)
	CountPublic(ctx context.Context) (int64, error)
	LatestPublic(ctx context.Context) (*model.Post, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByUUID(ctx context.Context, uuid string) (*model.Comment, error)
	// ListByTarget returns up to page.Fetch() non-deleted comments.
	ListByTarget(ctx context.Context, targetType, targetUUID string, page model.Page, sort string) ([]model.Comment, error)
	CountByTarget(ctx context.Context, targetType, targetUUID string) (int64, error)
	Update(ctx context.Context, c *model.Comment) error
	SoftDelete(ctx context.Context, uuid, deletedBy string) error
}

type ConfigRepository interface {
	// Get returns model.ErrConfigNotFound for unknown keys.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, val string) error
	All(ctx context.Context) (map[string]string, error)
}
