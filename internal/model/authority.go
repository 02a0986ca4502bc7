package model

// Authority levels
const (
	AuthorityEveryone  = 0
	AuthorityMember    = 1
	AuthorityEditor    = 2
	AuthorityModerator = 3
	AuthoritySysop     = 4
)

// Thresholds is the minimum authority required for each gated action.
type Thresholds struct {
	PostCreate       int
	PostEditAny      int
	PostDeleteAny    int
	CommentCreate    int
	CommentEditAny   int
	CommentDeleteAny int
	SiteAdmin        int
	ViewHidden       int
}

// DefaultThresholds returns the stock authority table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PostCreate:       AuthorityEditor,
		PostEditAny:      AuthoritySysop,
		PostDeleteAny:    AuthorityModerator,
		CommentCreate:    AuthorityMember,
		CommentEditAny:   AuthoritySysop,
		CommentDeleteAny: AuthorityModerator,
		SiteAdmin:        AuthoritySysop,
		ViewHidden:       AuthorityModerator,
	}
}
