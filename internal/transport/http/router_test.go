package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/config"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
	"github.com/FreeNowOrg/BlogNow/internal/repository/memory"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	authmw "github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

const testPassword = "correct-horse-battery-staple"

type envelope struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Body    map[string]any `json:"body"`
}

type testServer struct {
	t      *testing.T
	store  *memory.Store
	router stdhttp.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.StoreDriver = config.StoreDriverMemory
	cfg.JWTSecret = "router-test-secret"
	cfg.SiteURL = "https://blog.example"

	store := memory.New()
	repos := Repositories{
		Users:    store.Users(),
		Posts:    store.Posts(),
		Comments: store.Comments(),
		Config:   store.Config(),
	}
	media, err := service.NewMediaService(context.Background(), cfg, model.DefaultThresholds())
	require.NoError(t, err)

	svcs := NewServices(cfg, repos, cache.Nop{}, queue.NopPublisher{}, media)
	return &testServer{t: t, store: store, router: NewRouterFromServices(cfg, svcs, nil)}
}

// addUser stores an account directly so tests can pick its authority.
func (s *testServer) addUser(username string, authority int) {
	s.t.Helper()
	salt, err := auth.NewSalt()
	require.NoError(s.t, err)
	require.NoError(s.t, s.store.Users().Create(context.Background(), &model.User{
		UUID:         uuid.NewString(),
		Username:     username,
		Nickname:     username,
		Salt:         salt,
		PasswordHash: auth.HashPassword(salt, testPassword),
		Authority:    authority,
		AllowComment: true,
		CreatedAt:    time.Now(),
	}))
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) signIn(username string) string {
	s.t.Helper()
	rec, env := s.do(stdhttp.MethodPost, "/user/auth/sign-in", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(s.t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	return env.Body["token"].(string)
}

func (s *testServer) createPost(token string, body map[string]any) (int, envelope) {
	s.t.Helper()
	rec, env := s.do(stdhttp.MethodPost, "/post/create", token, body)
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(stdhttp.MethodGet, "/health", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "ok", env.Body["status"])
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	t.Run("weak password names the field", func(t *testing.T) {
		rec, env := s.do(stdhttp.MethodPost, "/user/auth/register", "", map[string]string{"username": "alice", "password": "weak"})
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
		assert.Equal(t, 400, env.Status)
		assert.Equal(t, "password", env.Body["field"])
	})

	t.Run("invalid username", func(t *testing.T) {
		rec, env := s.do(stdhttp.MethodPost, "/user/auth/register", "", map[string]string{"username": "1234", "password": testPassword})
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
		assert.Equal(t, "username", env.Body["field"])
	})

	t.Run("success", func(t *testing.T) {
		rec, env := s.do(stdhttp.MethodPost, "/user/auth/register", "", map[string]string{"username": "alice", "password": testPassword})
		require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, env.Body["token"])
		profile := env.Body["profile"].(map[string]any)
		assert.Equal(t, "alice", profile["username"])
		assert.NotContains(t, rec.Body.String(), "password_hash")
	})

	t.Run("duplicate is case-insensitive", func(t *testing.T) {
		rec, _ := s.do(stdhttp.MethodPost, "/user/auth/register", "", map[string]string{"username": "ALICE", "password": testPassword})
		assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(stdhttp.MethodPost, "/user/auth/register", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestSignInAndSession(t *testing.T) {
	s := newTestServer(t)
	s.addUser("alice", model.AuthorityMember)

	rec, env := s.do(stdhttp.MethodPost, "/user/auth/sign-in", "", map[string]string{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", env.Message)

	rec, _ = s.do(stdhttp.MethodPost, "/user/auth/sign-in", "", map[string]string{"username": "nobody", "password": testPassword})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec, env = s.do(stdhttp.MethodPost, "/user/auth/sign-in", "", map[string]string{"username": "Alice", "password": testPassword})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	token := env.Body["token"].(string)

	var cookie *stdhttp.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authmw.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// Anonymous profile
	rec, env = s.do(stdhttp.MethodGet, "/user/auth/profile", "", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Contains(t, env.Body, "profile")
	assert.Nil(t, env.Body["profile"])

	// Cookie authentication
	req := httptest.NewRequest(stdhttp.MethodGet, "/user/auth/profile", nil)
	req.AddCookie(cookie)
	cookieRec := httptest.NewRecorder()
	s.router.ServeHTTP(cookieRec, req)
	assert.Equal(t, stdhttp.StatusOK, cookieRec.Code)

	// Signing out revokes the token
	rec, _ = s.do(stdhttp.MethodPost, "/user/auth/sign-out", token, nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	rec, _ = s.do(stdhttp.MethodGet, "/user/auth/profile", token, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestChangePasswordInvalidatesToken(t *testing.T) {
	s := newTestServer(t)
	s.addUser("alice", model.AuthorityMember)
	token := s.signIn("alice")

	rec, env := s.do(stdhttp.MethodPatch, "/user/auth/password", token, map[string]string{
		"password":     "not-my-password",
		"new_password": "another-long-passphrase-42",
	})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code, env.Message)

	rec, _ = s.do(stdhttp.MethodPatch, "/user/auth/password", token, map[string]string{
		"password":     testPassword,
		"new_password": "another-long-passphrase-42",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, _ = s.do(stdhttp.MethodGet, "/user/auth/profile", token, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec, _ = s.do(stdhttp.MethodPost, "/user/auth/sign-in", "", map[string]string{"username": "alice", "password": "another-long-passphrase-42"})
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(stdhttp.MethodPost, "/post/create", "", map[string]any{"title": "t", "content": "c"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, env.Status)

	rec, _ = s.do(stdhttp.MethodPost, "/post/create", "garbage", map[string]any{"title": "t", "content": "c"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestGetUser(t *testing.T) {
	s := newTestServer(t)
	s.addUser("alice", model.AuthorityMember)
	s.addUser("bob", model.AuthorityMember)

	rec, env := s.do(stdhttp.MethodGet, "/user/username/alice", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "alice", env.Body["user"].(map[string]any)["username"])

	rec, env = s.do(stdhttp.MethodGet, "/user/username/nobody", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Nil(t, env.Body["user"])
	assert.Equal(t, map[string]any{"username": "nobody"}, env.Body["filter"])

	rec, env = s.do(stdhttp.MethodGet, "/user/uid/424242", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"uid": float64(424242)}, env.Body["filter"])

	rec, env = s.do(stdhttp.MethodGet, "/users/username/alice,nobody,bob", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, env.Body["users"], 2)
}

func TestCreatePost(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)
	s.addUser("member", model.AuthorityMember)
	editor := s.signIn("editor")

	code, env := s.createPost(editor, map[string]any{"title": "Hello World", "content": "# Hi"})
	require.Equal(t, stdhttp.StatusCreated, code, env.Message)
	post := env.Body["post"].(map[string]any)
	assert.Equal(t, "hello-world", post["slug"])
	assert.Equal(t, float64(1), post["pid"])

	code, env = s.createPost(editor, map[string]any{"title": "Second", "content": ""})
	require.Equal(t, stdhttp.StatusCreated, code)
	assert.Equal(t, float64(2), env.Body["post"].(map[string]any)["pid"])

	code, _ = s.createPost(editor, map[string]any{"title": "Another", "content": "x", "slug": "hello-world"})
	assert.Equal(t, stdhttp.StatusConflict, code)

	code, env = s.createPost(editor, map[string]any{"content": "x"})
	assert.Equal(t, stdhttp.StatusBadRequest, code)
	assert.Equal(t, "title", env.Body["field"])

	code, _ = s.createPost(s.signIn("member"), map[string]any{"title": "Nope", "content": "x"})
	assert.Equal(t, stdhttp.StatusForbidden, code)

	rec, env := s.do(stdhttp.MethodGet, "/post/slug/hello-world", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "Hello World", env.Body["post"].(map[string]any)["title"])
}

func TestGetPost_NotFoundBody(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(stdhttp.MethodGet, "/post/pid/999999", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, 404, env.Status)
	assert.Contains(t, env.Body, "post")
	assert.Nil(t, env.Body["post"])
	assert.Equal(t, map[string]any{"pid": float64(999999)}, env.Body["filter"])

	rec, env = s.do(stdhttp.MethodGet, "/post/pid/abc", "", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "pid", env.Body["field"])
}

func TestPrivatePostIsHidden(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)
	s.addUser("reader", model.AuthorityMember)
	editor := s.signIn("editor")

	code, _ := s.createPost(editor, map[string]any{"title": "Secret", "content": "x"})
	require.Equal(t, stdhttp.StatusCreated, code)

	rec, _ := s.do(stdhttp.MethodPatch, "/post/pid/1", editor, map[string]any{"is_private": true})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, _ = s.do(stdhttp.MethodGet, "/post/pid/1", s.signIn("reader"), nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, _ = s.do(stdhttp.MethodGet, "/post/pid/1", editor, nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, env := s.do(stdhttp.MethodGet, "/post/list/recent", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Empty(t, env.Body["posts"])
}

func TestListRecent_Pagination(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)
	editor := s.signIn("editor")
	for i := 1; i <= 5; i++ {
		code, _ := s.createPost(editor, map[string]any{"title": fmt.Sprintf("Post %d", i), "content": "x"})
		require.Equal(t, stdhttp.StatusCreated, code)
	}

	pids := func(env envelope) []float64 {
		var out []float64
		for _, p := range env.Body["posts"].([]any) {
			out = append(out, p.(map[string]any)["pid"].(float64))
		}
		return out
	}

	_, first := s.do(stdhttp.MethodGet, "/post/list/recent?offset=0&limit=2", "", nil)
	_, second := s.do(stdhttp.MethodGet, "/post/list/recent?offset=2&limit=2", "", nil)
	_, third := s.do(stdhttp.MethodGet, "/post/list/recent?offset=4&limit=2", "", nil)
	assert.Equal(t, []float64{5, 4}, pids(first))
	assert.Equal(t, []float64{3, 2}, pids(second))
	assert.Equal(t, []float64{1}, pids(third))
	assert.Equal(t, true, first.Body["has_next"])
	assert.Equal(t, false, third.Body["has_next"])

	_, env := s.do(stdhttp.MethodGet, "/post/list/recent?limit=100", "", nil)
	assert.Equal(t, float64(25), env.Body["limit"])

	_, env = s.do(stdhttp.MethodGet, "/post/list/recent?limit=0", "", nil)
	assert.Equal(t, float64(1), env.Body["limit"])
	assert.Equal(t, true, env.Body["has_next"])

	_, env = s.do(stdhttp.MethodGet, "/post/list/recent?offset=-3", "", nil)
	assert.Equal(t, float64(0), env.Body["offset"])

	rec, env := s.do(stdhttp.MethodGet, "/post/list/recent?limit=ten", "", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit", env.Body["field"])
}

func TestDeletePost(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)
	s.addUser("other", model.AuthorityEditor)
	editor := s.signIn("editor")

	code, _ := s.createPost(editor, map[string]any{"title": "Doomed", "content": "x"})
	require.Equal(t, stdhttp.StatusCreated, code)

	rec, _ := s.do(stdhttp.MethodDelete, "/post/slug/doomed", s.signIn("other"), nil)
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, _ = s.do(stdhttp.MethodDelete, "/post/slug/doomed", editor, nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, _ = s.do(stdhttp.MethodGet, "/post/slug/doomed", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	// The slug is free again once the post is gone.
	code, _ = s.createPost(editor, map[string]any{"title": "Doomed", "content": "again"})
	assert.Equal(t, stdhttp.StatusCreated, code)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)
	s.addUser("reader", model.AuthorityMember)
	editor := s.signIn("editor")
	reader := s.signIn("reader")

	_, env := s.createPost(editor, map[string]any{"title": "Talk", "content": "x"})
	postUUID := env.Body["post"].(map[string]any)["uuid"].(string)
	base := "/comment/post/" + postUUID

	rec, env := s.do(stdhttp.MethodPost, base, reader, map[string]string{"content": "First!"})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, env.Message)
	commentUUID := env.Body["comment"].(map[string]any)["uuid"].(string)

	rec, env = s.do(stdhttp.MethodPost, base, reader, map[string]string{"content": "   "})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "content", env.Body["field"])

	rec, _ = s.do(stdhttp.MethodPost, base, reader, map[string]string{"content": strings.Repeat("a", model.MaxCommentLength+1)})
	assert.Equal(t, stdhttp.StatusRequestEntityTooLarge, rec.Code)

	rec, _ = s.do(stdhttp.MethodPost, base, "", map[string]string{"content": "anon"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec, env = s.do(stdhttp.MethodGet, base+"?sort=desc", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, float64(1), env.Body["total_comments"])
	assert.Equal(t, "desc", env.Body["sort"])
	comments := env.Body["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "reader", comments[0].(map[string]any)["author"].(map[string]any)["username"])

	rec, _ = s.do(stdhttp.MethodGet, "/comment/post/"+uuid.NewString(), "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	rec, _ = s.do(stdhttp.MethodPatch, "/comment/"+commentUUID, editor, map[string]string{"content": "edited"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, env = s.do(stdhttp.MethodPatch, "/comment/"+commentUUID, reader, map[string]string{"content": "edited"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "edited", env.Body["comment"].(map[string]any)["content"])

	rec, _ = s.do(stdhttp.MethodDelete, "/comment/"+commentUUID, reader, nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	_, env = s.do(stdhttp.MethodGet, base, "", nil)
	assert.Equal(t, float64(0), env.Body["total_comments"])
}

func TestSiteEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.addUser("admin", model.AuthoritySysop)
	s.addUser("member", model.AuthorityMember)
	admin := s.signIn("admin")

	code, _ := s.createPost(admin, map[string]any{"title": "Launch", "content": "We are **live**."})
	require.Equal(t, stdhttp.StatusCreated, code)

	rec, env := s.do(stdhttp.MethodGet, "/site/meta", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	meta := env.Body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["total_posts"])
	assert.Equal(t, float64(2), meta["total_users"])
	latest := meta["latest_post"].(map[string]any)
	assert.Equal(t, "Launch", latest["title"])
	assert.NotContains(t, latest, "content")

	rec, _ = s.do(stdhttp.MethodPut, "/config/siteName", s.signIn("member"), map[string]string{"val": "Mine"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, _ = s.do(stdhttp.MethodPut, "/config/secret", admin, map[string]string{"val": "leak"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, _ = s.do(stdhttp.MethodPut, "/config/siteName", admin, map[string]string{"val": "Field Notes"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec, env = s.do(stdhttp.MethodGet, "/config", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	cfg := env.Body["config"].(map[string]any)
	assert.Equal(t, "Field Notes", cfg["siteName"])
	assert.NotContains(t, cfg, "secret")

	req := httptest.NewRequest(stdhttp.MethodGet, "/post/feed.rss", nil)
	feedRec := httptest.NewRecorder()
	s.router.ServeHTTP(feedRec, req)
	require.Equal(t, stdhttp.StatusOK, feedRec.Code)
	assert.Contains(t, feedRec.Header().Get("Content-Type"), "rss")
	assert.Contains(t, feedRec.Body.String(), "Field Notes")
	assert.Contains(t, feedRec.Body.String(), "https://blog.example/post/slug/launch")

	req = httptest.NewRequest(stdhttp.MethodGet, "/post/feed.atom", nil)
	feedRec = httptest.NewRecorder()
	s.router.ServeHTTP(feedRec, req)
	require.Equal(t, stdhttp.StatusOK, feedRec.Code)
	assert.Contains(t, feedRec.Body.String(), "<feed")
}

func TestMediaPresign_Disabled(t *testing.T) {
	s := newTestServer(t)
	s.addUser("editor", model.AuthorityEditor)

	rec, env := s.do(stdhttp.MethodPost, "/media/presign", s.signIn("editor"), map[string]any{"content_type": "image/png"})
	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 503, env.Status)
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(stdhttp.MethodGet, "/nope/nope/nope", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, 404, env.Status)
}
