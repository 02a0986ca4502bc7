package model

import (
	"time"

	"github.com/lib/pq"
)

// Lookup selectors for posts
const (
	PostSelectorUUID = "uuid"
	PostSelectorPID  = "pid"
	PostSelectorSlug = "slug"
)

// Post represents a blog post with its visibility flags.
type Post struct {
	UUID             string         `db:"uuid" json:"uuid"`
	PID              int64          `db:"pid" json:"pid"`
	Slug             string         `db:"slug" json:"slug"`
	Title            string         `db:"title" json:"title"`
	Content          string         `db:"content" json:"content,omitempty"`
	AuthorUUID       string         `db:"author_uuid" json:"author_uuid"`
	EditorUUID       string         `db:"editor_uuid" json:"editor_uuid"`
	AllowComment     bool           `db:"allow_comment" json:"allow_comment"`
	IsDeleted        bool           `db:"is_deleted" json:"is_deleted"`
	DeletedBy        string         `db:"deleted_by" json:"deleted_by,omitempty"`
	IsPrivate        bool           `db:"is_private" json:"is_private"`
	AllowedUsers     pq.StringArray `db:"allowed_users" json:"allowed_users"`
	AllowedAuthority int            `db:"allowed_authority" json:"allowed_authority"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	EditedAt         *time.Time     `db:"edited_at" json:"edited_at"`

	// Joined fields (not in posts table)
	Author *PublicUser `json:"author,omitempty"`
	Editor *PublicUser `json:"editor,omitempty"`
}

// CreatePostRequest keeps title and content as pointers so that an empty
// string is accepted while a missing field is rejected.
type CreatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Slug    *string `json:"slug"`
}

// UpdatePostRequest carries optional fields; nil means unchanged.
type UpdatePostRequest struct {
	Title            *string   `json:"title"`
	Content          *string   `json:"content"`
	Slug             *string   `json:"slug"`
	AllowComment     *bool     `json:"allow_comment"`
	IsPrivate        *bool     `json:"is_private"`
	AllowedUsers     *[]string `json:"allowed_users"`
	AllowedAuthority *int      `json:"allowed_authority"`
}

// PostQuery selects a page of posts visible to Viewer.
type PostQuery struct {
	Viewer     Viewer
	AuthorUUID string
	Page       Page
}

// PostListResponse is the paginated post list response.
type PostListResponse struct {
	Posts   []Post `json:"posts"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
	HasNext bool   `json:"has_next"`
}

var (
	// ErrPostNotFound is returned when a post is missing or not visible
	ErrPostNotFound = newKindError(ErrNotFound, "post not found")

	// ErrSlugTaken is returned when a non-empty slug is already in use
	ErrSlugTaken = newKindError(ErrConflict, "slug already in use")
)
