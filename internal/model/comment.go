package model

import (
	"time"
)

// Comment target kinds
const (
	TargetUser    = "user"
	TargetPost    = "post"
	TargetComment = "comment"
)

// MaxCommentLength is the longest comment body accepted, in characters.
const MaxCommentLength = 1000

// Comment represents a comment attached to a user, post or another comment.
type Comment struct {
	UUID       string     `db:"uuid" json:"uuid"`
	TargetType string     `db:"target_type" json:"target_type"`
	TargetUUID string     `db:"target_uuid" json:"target_uuid"`
	Content    string     `db:"content" json:"content"`
	AuthorUUID string     `db:"author_uuid" json:"author_uuid"`
	EditorUUID string     `db:"editor_uuid" json:"editor_uuid"`
	IsDeleted  bool       `db:"is_deleted" json:"is_deleted"`
	DeletedBy  string     `db:"deleted_by" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	EditedAt   *time.Time `db:"edited_at" json:"edited_at"`

	// Joined fields
	Author *PublicUser `json:"author,omitempty"`
	Editor *PublicUser `json:"editor,omitempty"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// CommentFilter identifies the commented entity.
type CommentFilter struct {
	TargetType string `json:"target_type"`
	TargetUUID string `json:"target_uuid"`
}

// CommentListResponse is the paginated comment list response.
type CommentListResponse struct {
	Comments      []Comment     `json:"comments"`
	Filter        CommentFilter `json:"filter"`
	TotalComments int64         `json:"total_comments"`
	Offset        int           `json:"offset"`
	Limit         int           `json:"limit"`
	Sort          string        `json:"sort"`
	HasNext       bool          `json:"has_next"`
}

var (
	// ErrCommentNotFound is returned when a comment is missing or deleted
	ErrCommentNotFound = newKindError(ErrNotFound, "comment not found")

	// ErrTargetNotFound is returned when the commented entity is missing or hidden
	ErrTargetNotFound = newKindError(ErrNotFound, "comment target not found")

	// ErrCommentTooLong is returned when content exceeds MaxCommentLength
	ErrCommentTooLong = newKindError(ErrTooLarge, "comment is too long")

	// ErrCommentsClosed is returned when the target does not accept comments
	ErrCommentsClosed = newKindError(ErrForbidden, "comments are closed")
)
