package memory

import (
	"context"
	"strings"
	"time"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

type userRepository struct {
	s *Store
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.TokenExpires = cloneTime(u.TokenExpires)
	c.LastActiveAt = cloneTime(u.LastActiveAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (r *userRepository) liveByUsername(username string) *model.User {
	for _, u := range r.s.users {
		if !u.IsDeleted && strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

func (r *userRepository) byUUID(uuid string) *model.User {
	for _, u := range r.s.users {
		if !u.IsDeleted && u.UUID == uuid {
			return u
		}
	}
	return nil
}

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.liveByUsername(u.Username) != nil {
		return model.ErrUsernameExists
	}
	r.s.lastUID++
	u.UID = r.s.lastUID
	r.s.users = append(r.s.users, copyUser(u))
	return nil
}

func (r *userRepository) GetByUUID(_ context.Context, uuid string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.byUUID(uuid); u != nil {
		return copyUser(u), nil
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) GetByUID(_ context.Context, uid int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if !u.IsDeleted && u.UID == uid {
			return copyUser(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.liveByUsername(username); u != nil {
		return copyUser(u), nil
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.liveByUsername(username) != nil, nil
}

func (r *userRepository) UpdateSession(_ context.Context, uuid, token string, expires, lastActive time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.byUUID(uuid)
	if u == nil {
		return model.ErrUserNotFound
	}
	u.Token = token
	u.TokenExpires = &expires
	u.LastActiveAt = &lastActive
	return nil
}

func (r *userRepository) ClearSession(_ context.Context, uuid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.byUUID(uuid)
	if u == nil {
		return model.ErrUserNotFound
	}
	u.Token = ""
	u.TokenExpires = nil
	return nil
}

func (r *userRepository) UpdateCredentials(_ context.Context, uuid, username, salt, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.byUUID(uuid)
	if u == nil {
		return model.ErrUserNotFound
	}
	if other := r.liveByUsername(username); other != nil && other.UUID != uuid {
		return model.ErrUsernameExists
	}
	u.Username = username
	u.Salt = salt
	u.PasswordHash = passwordHash
	u.Token = ""
	u.TokenExpires = nil
	return nil
}

func (r *userRepository) UpdateProfile(_ context.Context, in *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.byUUID(in.UUID)
	if u == nil {
		return model.ErrUserNotFound
	}
	u.Nickname = in.Nickname
	u.Email = in.Email
	u.Title = in.Title
	u.Slogan = in.Slogan
	u.Gender = in.Gender
	u.AllowComment = in.AllowComment
	return nil
}

func (r *userRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	live := find(r.s.users, func(u *model.User) bool { return !u.IsDeleted })
	return int64(len(live)), nil
}

func (r *userRepository) First(_ context.Context) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(r.s.users) == 0 {
		return nil, model.ErrUserNotFound
	}
	return copyUser(r.s.users[0]), nil
}
