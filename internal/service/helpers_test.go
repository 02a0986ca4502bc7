package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
	"github.com/FreeNowOrg/BlogNow/internal/repository/memory"
)

const strongPassword = "correct-horse-battery-staple"

// recordingPublisher keeps every published event for assertions.
type recordingPublisher struct {
	events []queue.BlogEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event queue.BlogEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

// mockUserRepository overrides selected methods; the rest fall through to
// the embedded repository.
type mockUserRepository struct {
	repository.UserRepository

	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	createFn           func(ctx context.Context, u *model.User) error
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return m.UserRepository.ExistsByUsername(ctx, username)
}

func (m *mockUserRepository) Create(ctx context.Context, u *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	return m.UserRepository.Create(ctx, u)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return m.UserRepository.GetByUsername(ctx, username)
}

type testEnv struct {
	store     *memory.Store
	publisher *recordingPublisher
	auth      *AuthService
	users     *UserService
	identity  *IdentityService
	posts     *PostService
	comments  *CommentService
	site      *SiteService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	pub := &recordingPublisher{}
	thresholds := model.DefaultThresholds()

	authSvc := NewAuthService(store.Users(), auth.NewTokenSigner("test-secret"), 7*24*time.Hour)
	return &testEnv{
		store:     store,
		publisher: pub,
		auth:      authSvc,
		users:     NewUserService(store.Users(), authSvc, PasswordPolicy{MinLength: 6, MinScore: 2}),
		identity:  NewIdentityService(store.Users()),
		posts:     NewPostService(store.Posts(), store.Users(), cache.Nop{}, pub, thresholds),
		comments:  NewCommentService(store.Comments(), store.Posts(), store.Users(), pub, thresholds),
		site:      NewSiteService(store.Config(), store.Posts(), store.Users(), cache.Nop{}, thresholds),
	}
}

// addUser inserts an account with the given authority and password and
// returns the stored row.
func (e *testEnv) addUser(t *testing.T, username string, authority int) *model.User {
	t.Helper()

	salt, err := auth.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	u := &model.User{
		UUID:         uuid.NewString(),
		Username:     username,
		Nickname:     username,
		Salt:         salt,
		PasswordHash: auth.HashPassword(salt, strongPassword),
		Authority:    authority,
		AllowComment: true,
		CreatedAt:    time.Now(),
	}
	if err := e.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
