package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

const (
	avatarBaseURL = "https://gravatar.loli.net/avatar/"
	avatarQuery   = "?s=120&d=identicon&r=g"

	// MaxResolveMany caps the batch user lookup.
	MaxResolveMany = 25
)

// AvatarURL returns the Gravatar identicon URL for email.
func AvatarURL(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return avatarBaseURL + avatarQuery
	}
	sum := md5.Sum([]byte(email))
	return avatarBaseURL + hex.EncodeToString(sum[:]) + avatarQuery
}

// Sanitize strips secrets and the email from u.
func Sanitize(u *model.User) *model.PublicUser {
	if u == nil {
		return nil
	}
	return &model.PublicUser{
		UUID:         u.UUID,
		UID:          u.UID,
		Username:     u.Username,
		Nickname:     u.Nickname,
		Title:        u.Title,
		Slogan:       u.Slogan,
		Gender:       u.Gender,
		Avatar:       AvatarURL(u.Email),
		Authority:    u.Authority,
		AllowComment: u.AllowComment,
		CreatedAt:    u.CreatedAt,
	}
}

// IdentityService looks accounts up by uuid, uid or username.
type IdentityService struct {
	users repository.UserRepository
}

func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Resolve returns the account identified by selector and value.
func (s *IdentityService) Resolve(ctx context.Context, selector, value string) (*model.User, error) {
	switch selector {
	case model.UserSelectorUUID:
		return s.users.GetByUUID(ctx, value)
	case model.UserSelectorUID:
		uid, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, model.NewValidationError("uid", "uid must be an integer")
		}
		return s.users.GetByUID(ctx, uid)
	case model.UserSelectorUsername:
		return s.users.GetByUsername(ctx, value)
	default:
		return nil, model.NewValidationError("selector", "selector must be one of uuid, uid, username")
	}
}

// ResolveMany returns the sanitized accounts that exist among values, in
// request order. Duplicates and unknown values are skipped.
func (s *IdentityService) ResolveMany(ctx context.Context, selector string, values []string) ([]model.PublicUser, error) {
	if len(values) > MaxResolveMany {
		return nil, model.NewValidationError(selector, fmt.Sprintf("at most %d values per request", MaxResolveMany))
	}

	users := make([]model.PublicUser, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		u, err := s.Resolve(ctx, selector, v)
		if errors.Is(err, model.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if seen[u.UUID] {
			continue
		}
		seen[u.UUID] = true
		users = append(users, *Sanitize(u))
	}
	return users, nil
}

// userDirectory memoizes sanitized authors while rendering one response.
type userDirectory struct {
	users repository.UserRepository
	seen  map[string]*model.PublicUser
}

func newUserDirectory(users repository.UserRepository) *userDirectory {
	return &userDirectory{users: users, seen: make(map[string]*model.PublicUser)}
}

// get returns nil for empty or unknown uuids; lookup failures are logged and
// rendered as a missing user.
func (d *userDirectory) get(ctx context.Context, uuid string) *model.PublicUser {
	if uuid == "" {
		return nil
	}
	if u, ok := d.seen[uuid]; ok {
		return u
	}
	u, err := d.users.GetByUUID(ctx, uuid)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		log.Warn().Err(err).Str("user", uuid).Msg("[Identity] Failed to load user")
	}
	d.seen[uuid] = Sanitize(u)
	return d.seen[uuid]
}
