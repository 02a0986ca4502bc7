package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/FreeNowOrg/BlogNow/internal/handler"
	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/metrics"
	authmw "github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	SiteHandler    *handler.SiteHandler
	MediaHandler   *handler.MediaHandler

	Authenticator  authmw.Authenticator
	RateLimiter    *authmw.RateLimiter // nil disables rate limiting
	RequestTimeout time.Duration
	Env            string
	CORSOrigins    []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(authmw.CORS(cfg.Env, cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Respond(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Respond(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteOK(w, httputil.Body{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Limit
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.Timeout(cfg.RequestTimeout))
		r.Use(authmw.OptionalAuth(cfg.Authenticator))

		r.Route("/user", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(limit).Post("/register", cfg.AuthHandler.Register)
				r.With(limit).Post("/sign-in", cfg.AuthHandler.SignIn)
				r.Get("/profile", cfg.AuthHandler.Profile)

				r.Group(func(r chi.Router) {
					r.Use(authmw.RequireAuth)
					r.Post("/sign-out", cfg.AuthHandler.SignOut)
					r.With(limit).Patch("/password", cfg.AuthHandler.ChangePassword)
					r.With(limit).Patch("/username", cfg.AuthHandler.ChangeUsername)
					r.Patch("/profile", cfg.AuthHandler.UpdateProfile)
				})
			})
			r.Get("/{selector}/{value}", cfg.UserHandler.Get)
		})
		r.Get("/users/{selector}/{values}", cfg.UserHandler.List)

		r.Route("/post", func(r chi.Router) {
			r.Get("/feed.rss", cfg.SiteHandler.RSS)
			r.Get("/feed.atom", cfg.SiteHandler.Atom)
			r.Get("/list/recent", cfg.PostHandler.ListRecent)
			r.Get("/list/author/{uuid}", cfg.PostHandler.ListByAuthor)
			r.Get("/{selector}/{value}", cfg.PostHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/create", cfg.PostHandler.Create)
				r.Patch("/{selector}/{value}", cfg.PostHandler.Update)
				r.Delete("/{selector}/{value}", cfg.PostHandler.Delete)
			})
		})

		r.Route("/comment", func(r chi.Router) {
			r.Get("/{target_type}/{target_uuid}", cfg.CommentHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAuth)
				r.Post("/{target_type}/{target_uuid}", cfg.CommentHandler.Create)
				r.Patch("/{uuid}", cfg.CommentHandler.Update)
				r.Delete("/{uuid}", cfg.CommentHandler.Delete)
			})
		})

		r.Get("/site/meta", cfg.SiteHandler.Meta)
		r.Get("/config", cfg.SiteHandler.Config)
		r.With(authmw.RequireAuth).Put("/config/{key}", cfg.SiteHandler.SetConfig)

		r.With(authmw.RequireAuth).Post("/media/presign", cfg.MediaHandler.Presign)
	})

	return r
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("[HTTP] Request")
}
