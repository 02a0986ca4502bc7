package model

import "strings"

// Pagination bounds shared by every list endpoint
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 25
	MinPageLimit     = 1
)

// Sort orders accepted by comment lists
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Page is an offset/limit window after clamping.
type Page struct {
	Offset int
	Limit  int
}

// NewPage clamps offset to >= 0 and limit to [MinPageLimit, MaxPageLimit].
func NewPage(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit < MinPageLimit {
		limit = MinPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Offset: offset, Limit: limit}
}

// Fetch is the number of rows to read so the extra one reveals a next page.
func (p Page) Fetch() int {
	return p.Limit + 1
}

// NormalizeSort maps anything but "desc" to ascending order.
func NormalizeSort(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// Viewer is the identity a query is evaluated for. The zero value is anonymous.
type Viewer struct {
	UUID      string
	Authority int
}

// ViewerOf returns the viewer for u, or the anonymous viewer when u is nil.
func ViewerOf(u *User) Viewer {
	if u == nil {
		return Viewer{}
	}
	return Viewer{UUID: u.UUID, Authority: u.Authority}
}

// Visibility is the part of a resource that decides who may read it.
type Visibility struct {
	AuthorUUID       string
	Deleted          bool
	Private          bool
	AllowedUsers     []string
	AllowedAuthority int
}

// Visibility returns the read restrictions of the post.
func (p *Post) Visibility() Visibility {
	return Visibility{
		AuthorUUID:       p.AuthorUUID,
		Deleted:          p.IsDeleted,
		Private:          p.IsPrivate,
		AllowedUsers:     p.AllowedUsers,
		AllowedAuthority: p.AllowedAuthority,
	}
}

// Visibility returns the read restrictions of the comment.
func (c *Comment) Visibility() Visibility {
	return Visibility{AuthorUUID: c.AuthorUUID, Deleted: c.IsDeleted}
}
