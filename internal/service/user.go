package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/metrics"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

const (
	nicknameMaxLength = 32
	titleMaxLength    = 32
	sloganMaxLength   = 256
)

// UserService handles account registration, sign-in and self-service edits.
type UserService struct {
	users  repository.UserRepository
	auth   *AuthService
	policy PasswordPolicy
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, authSvc *AuthService, policy PasswordPolicy) *UserService {
	return &UserService{
		users:  users,
		auth:   authSvc,
		policy: policy,
		now:    time.Now,
	}
}

// Register creates a member account and signs it in.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.PublicUser, *model.Session, error) {
	username := strings.TrimSpace(req.Username)
	if err := ValidateUsername("username", username); err != nil {
		return nil, nil, err
	}
	if err := s.policy.Check("password", req.Password, username); err != nil {
		return nil, nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, nil, model.ErrUsernameExists
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return nil, nil, err
	}
	u := &model.User{
		UUID:         uuid.NewString(),
		Username:     username,
		Nickname:     username,
		PasswordHash: auth.HashPassword(salt, req.Password),
		Salt:         salt,
		Authority:    model.AuthorityMember,
		AllowComment: true,
		CreatedAt:    s.now(),
	}

	// Create re-checks uniqueness against the index, so a racing
	// registration still ends in ErrUsernameExists.
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrUsernameExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("user", u.UUID).Int64("uid", u.UID).Msg("[UserService] Registered")

	session, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return Sanitize(u), session, nil
}

// SignIn checks credentials and issues a token. Unknown users and wrong
// passwords are indistinguishable.
func (s *UserService) SignIn(ctx context.Context, req *model.LoginRequest) (*model.PublicUser, *model.Session, error) {
	u, err := s.checkCredentials(ctx, req.Username, req.Password)
	metrics.ObserveAuth("sign_in", err == nil)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return Sanitize(u), session, nil
}

func (s *UserService) checkCredentials(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, model.ErrInvalidCredentials
	}

	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.VerifyPassword(u.Salt, password, u.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}
	return u, nil
}

// SignOut revokes the viewer's session.
func (s *UserService) SignOut(ctx context.Context, viewer *model.User) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	return s.auth.RevokeToken(ctx, viewer.UUID)
}

// ChangePassword re-authenticates with the current password, stores the new
// one under a fresh salt and revokes the session.
func (s *UserService) ChangePassword(ctx context.Context, viewer *model.User, req *model.ChangePasswordRequest) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	if !auth.VerifyPassword(viewer.Salt, req.Password, viewer.PasswordHash) {
		return model.ErrInvalidCredentials
	}
	if err := s.policy.Check("new_password", req.NewPassword, viewer.Username, viewer.Nickname); err != nil {
		return err
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return err
	}
	if err := s.users.UpdateCredentials(ctx, viewer.UUID, viewer.Username, salt, auth.HashPassword(salt, req.NewPassword)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	log.Info().Str("user", viewer.UUID).Msg("[UserService] Password changed, session revoked")
	return nil
}

// ChangeUsername re-authenticates, renames the account and revokes the session.
func (s *UserService) ChangeUsername(ctx context.Context, viewer *model.User, req *model.ChangeUsernameRequest) (*model.PublicUser, error) {
	if viewer == nil {
		return nil, model.ErrAuthRequired
	}
	if !auth.VerifyPassword(viewer.Salt, req.Password, viewer.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}

	username := strings.TrimSpace(req.NewUsername)
	if err := ValidateUsername("new_username", username); err != nil {
		return nil, err
	}
	// A pure case change keeps the account's own index entry.
	if !strings.EqualFold(username, viewer.Username) {
		exists, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			return nil, model.ErrUsernameExists
		}
	}

	if err := s.users.UpdateCredentials(ctx, viewer.UUID, username, viewer.Salt, viewer.PasswordHash); err != nil {
		if errors.Is(err, model.ErrUsernameExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update username: %w", err)
	}

	updated := *viewer
	updated.Username = username
	updated.Token, updated.TokenExpires = "", nil
	return Sanitize(&updated), nil
}

// UpdateProfile applies the non-nil fields of req to the viewer's profile.
func (s *UserService) UpdateProfile(ctx context.Context, viewer *model.User, req *model.UpdateProfileRequest) (*model.PublicUser, error) {
	if viewer == nil {
		return nil, model.ErrAuthRequired
	}

	u := *viewer
	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if utf8.RuneCountInString(nickname) > nicknameMaxLength {
			return nil, model.NewValidationError("nickname", fmt.Sprintf("nickname must be at most %d characters", nicknameMaxLength))
		}
		if nickname == "" {
			nickname = u.Username
		}
		u.Nickname = nickname
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, model.NewValidationError("email", "invalid email address")
			}
		}
		u.Email = email
	}
	if req.Title != nil {
		if utf8.RuneCountInString(*req.Title) > titleMaxLength {
			return nil, model.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", titleMaxLength))
		}
		u.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slogan != nil {
		if utf8.RuneCountInString(*req.Slogan) > sloganMaxLength {
			return nil, model.NewValidationError("slogan", fmt.Sprintf("slogan must be at most %d characters", sloganMaxLength))
		}
		u.Slogan = strings.TrimSpace(*req.Slogan)
	}
	if req.Gender != nil {
		switch *req.Gender {
		case "", model.GenderMale, model.GenderFemale, model.GenderOther:
			u.Gender = *req.Gender
		default:
			return nil, model.NewValidationError("gender", "gender must be male, female or other")
		}
	}
	if req.AllowComment != nil {
		u.AllowComment = *req.AllowComment
	}

	if err := s.users.UpdateProfile(ctx, &u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return Sanitize(&u), nil
}
