package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/metrics"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

// AuthService issues, verifies and revokes bearer tokens. The session id a
// token carries lives on the account row, so revoking it there invalidates
// every token issued for that session.
type AuthService struct {
	users  repository.UserRepository
	signer *auth.TokenSigner
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, signer *auth.TokenSigner, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken reuses the account's live session id or starts a new one, and
// extends the session to now+ttl.
func (s *AuthService) IssueToken(ctx context.Context, u *model.User) (*model.Session, error) {
	now := s.now()

	sessionID := u.Token
	if !u.HasLiveSession(now) {
		var err error
		if sessionID, err = auth.NewSessionID(); err != nil {
			return nil, err
		}
	}
	expires := now.Add(s.ttl)

	if err := s.users.UpdateSession(ctx, u.UUID, sessionID, expires, now); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	u.Token, u.TokenExpires, u.LastActiveAt = sessionID, &expires, &now

	token, err := s.signer.Sign(u.UUID, sessionID, now, expires)
	if err != nil {
		return nil, err
	}
	return &model.Session{Token: token, Expires: expires}, nil
}

// VerifyToken checks token against the stored session of accountUUID.
// Any mismatch is model.ErrInvalidToken; only storage failures differ.
func (s *AuthService) VerifyToken(ctx context.Context, accountUUID, token string) (*model.User, error) {
	u, err := s.verify(ctx, accountUUID, token)
	metrics.ObserveAuth("token", err == nil)
	return u, err
}

func (s *AuthService) verify(ctx context.Context, accountUUID, token string) (*model.User, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, model.ErrInvalidToken
	}
	if accountUUID == "" || claims.Account() != accountUUID {
		return nil, model.ErrInvalidToken
	}

	u, err := s.users.GetByUUID(ctx, accountUUID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if u.IsDeleted || u.Token == "" || u.Token != claims.ID || !u.HasLiveSession(s.now()) {
		return nil, model.ErrInvalidToken
	}
	return u, nil
}

// Authenticate resolves the account a token was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		metrics.ObserveAuth("token", false)
		return nil, model.ErrInvalidToken
	}
	return s.VerifyToken(ctx, claims.Account(), token)
}

// RevokeToken ends the account's session.
func (s *AuthService) RevokeToken(ctx context.Context, accountUUID string) error {
	if err := s.users.ClearSession(ctx, accountUUID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
