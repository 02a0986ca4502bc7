package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// TokenCookie carries the session token for browser clients.
const TokenCookie = "BLOG_NOW_TOKEN"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ViewerKey is the context key for the authenticated account
	ViewerKey contextKey = "viewer"
)

// Authenticator resolves the account behind a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// TokenFromRequest checks the Authorization header first, then falls back
// to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// OptionalAuth attaches the viewer when the request carries a valid token.
// Invalid or missing tokens continue anonymously; any other failure, such as
// the account store being down, is reported as is.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := a.Authenticate(r.Context(), token)
			if errors.Is(err, model.ErrInvalidToken) {
				hlog.FromRequest(r).Debug().Err(err).Msg("[Auth] Ignoring invalid token")
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				httputil.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), u)))
		})
	}
}

// RequireAuth rejects requests without a viewer. It must run after
// OptionalAuth.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetViewerFromContext(r.Context()); !ok {
			httputil.WriteError(w, r, model.ErrAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithViewer stores u in ctx.
func WithViewer(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, ViewerKey, u)
}

// GetViewerFromContext returns the authenticated account, if any.
func GetViewerFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(ViewerKey).(*model.User)
	return u, ok && u != nil
}

// Viewer returns the authenticated account or nil for anonymous requests.
func Viewer(r *http.Request) *model.User {
	u, _ := GetViewerFromContext(r.Context())
	return u
}
