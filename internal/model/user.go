package model

import (
	"time"
)

// Lookup selectors for accounts
const (
	UserSelectorUUID     = "uuid"
	UserSelectorUID      = "uid"
	UserSelectorUsername = "username"
)

// Gender values accepted on profile updates
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// FirstUID is the uid handed to the first registered account.
const FirstUID = 10000

// User represents an account row, secrets included.
// Never render it directly; use PublicUser.
type User struct {
	UUID         string     `db:"uuid" json:"uuid"`
	UID          int64      `db:"uid" json:"uid"`
	Username     string     `db:"username" json:"username"`
	Nickname     string     `db:"nickname" json:"nickname"`
	Email        string     `db:"email" json:"-"`
	Title        string     `db:"title" json:"title"`
	Slogan       string     `db:"slogan" json:"slogan"`
	Gender       string     `db:"gender" json:"gender"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Salt         string     `db:"salt" json:"-"`
	Token        string     `db:"token" json:"-"`
	TokenExpires *time.Time `db:"token_expires" json:"-"`
	LastActiveAt *time.Time `db:"last_active_at" json:"-"`
	Authority    int        `db:"authority" json:"authority"`
	AllowComment bool       `db:"allow_comment" json:"allow_comment"`
	IsDeleted    bool       `db:"is_deleted" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// HasLiveSession reports whether the stored session id is set and unexpired at now.
func (u *User) HasLiveSession(now time.Time) bool {
	return u.Token != "" && u.TokenExpires != nil && now.Before(*u.TokenExpires)
}

// PublicUser is the sanitized account view returned by every endpoint.
type PublicUser struct {
	UUID         string    `json:"uuid"`
	UID          int64     `json:"uid"`
	Username     string    `json:"username"`
	Nickname     string    `json:"nickname"`
	Title        string    `json:"title"`
	Slogan       string    `json:"slogan"`
	Gender       string    `json:"gender"`
	Avatar       string    `json:"avatar"`
	Authority    int       `json:"authority"`
	AllowComment bool      `json:"allow_comment"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to sign in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest re-authenticates with the current password.
type ChangePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// ChangeUsernameRequest re-authenticates with the current password.
type ChangeUsernameRequest struct {
	Password    string `json:"password"`
	NewUsername string `json:"new_username"`
}

// UpdateProfileRequest carries optional profile fields; nil means unchanged.
type UpdateProfileRequest struct {
	Nickname     *string `json:"nickname"`
	Email        *string `json:"email"`
	Title        *string `json:"title"`
	Slogan       *string `json:"slogan"`
	Gender       *string `json:"gender"`
	AllowComment *bool   `json:"allow_comment"`
}

// Session is the result of a successful sign-in or registration.
type Session struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = newKindError(ErrNotFound, "user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = newKindError(ErrConflict, "username already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = newKindError(ErrUnauthenticated, "invalid username or password")

	// ErrInvalidToken covers every token verification failure
	ErrInvalidToken = newKindError(ErrUnauthenticated, "invalid or expired token")
)
