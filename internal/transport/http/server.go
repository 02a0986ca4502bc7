package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/cache"
	"github.com/FreeNowOrg/BlogNow/internal/config"
	"github.com/FreeNowOrg/BlogNow/internal/database"
	"github.com/FreeNowOrg/BlogNow/internal/handler"
	applog "github.com/FreeNowOrg/BlogNow/internal/log"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/queue"
	"github.com/FreeNowOrg/BlogNow/internal/redis"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
	"github.com/FreeNowOrg/BlogNow/internal/repository/memory"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	authmw "github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
	"github.com/FreeNowOrg/BlogNow/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Repositories groups the storage backends the services run on.
type Repositories struct {
	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Config   repository.ConfigRepository
}

// Services groups everything NewServices builds from the repositories.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Identity *service.IdentityService
	Posts    *service.PostService
	Comments *service.CommentService
	Site     *service.SiteService
	Media    *service.MediaService
}

// NewServices wires the service layer. postCache and publisher may be the
// no-op implementations when Redis is not configured.
func NewServices(cfg *config.Config, repos Repositories, postCache cache.Cache, publisher queue.Publisher, media *service.MediaService) *Services {
	thresholds := model.DefaultThresholds()
	authSvc := service.NewAuthService(repos.Users, auth.NewTokenSigner(cfg.JWTSecret), cfg.TokenTTL)
	policy := service.PasswordPolicy{MinLength: cfg.PasswordMinLength, MinScore: cfg.PasswordMinScore}

	return &Services{
		Auth:     authSvc,
		Users:    service.NewUserService(repos.Users, authSvc, policy),
		Identity: service.NewIdentityService(repos.Users),
		Posts:    service.NewPostService(repos.Posts, repos.Users, postCache, publisher, thresholds),
		Comments: service.NewCommentService(repos.Comments, repos.Posts, repos.Users, publisher, thresholds),
		Site:     service.NewSiteService(repos.Config, repos.Posts, repos.Users, postCache, thresholds),
		Media:    media,
	}
}

// NewRouterFromServices builds the HTTP handlers over svcs.
func NewRouterFromServices(cfg *config.Config, svcs *Services, limiter *authmw.RateLimiter) stdhttp.Handler {
	return NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(svcs.Users),
		UserHandler:    handler.NewUserHandler(svcs.Identity),
		PostHandler:    handler.NewPostHandler(svcs.Posts),
		CommentHandler: handler.NewCommentHandler(svcs.Comments),
		SiteHandler:    handler.NewSiteHandler(svcs.Site, svcs.Posts, cfg.SiteURL),
		MediaHandler:   handler.NewMediaHandler(svcs.Media),
		Authenticator:  svcs.Auth,
		RateLimiter:    limiter,
		RequestTimeout: cfg.RequestTimeout,
		Env:            cfg.Env,
		CORSOrigins:    cfg.CORSOrigins,
	})
}

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applog.Init(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open storage
	repos, db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if err := config.ResolveSecret(ctx, cfg, repos.Config); err != nil {
		return fmt.Errorf("failed to resolve token secret: %w", err)
	}

	// 3. Optional Redis: post cache, event stream and workers
	var (
		postCache cache.Cache     = cache.Nop{}
		publisher queue.Publisher = queue.NopPublisher{}
		workers   *worker.Manager
	)
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		if err := rdb.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("[Server] Redis unavailable, running without cache and workers")
			rdb.Close()
		} else {
			defer rdb.Close()
			postCache = cache.NewCache(rdb.Client)
			publisher = queue.NewPublisher(rdb.Client)

			workers = worker.NewManager(
				queue.NewConsumer(rdb.Client),
				worker.NewHandler(repos.Posts, postCache),
				worker.ManagerConfig{WorkerCount: cfg.WorkerCount},
			)
			if err := workers.Start(ctx); err != nil {
				return fmt.Errorf("failed to start workers: %w", err)
			}
			defer workers.Stop()
		}
	}

	media, err := service.NewMediaService(ctx, cfg, model.DefaultThresholds())
	if err != nil {
		return err
	}
	if !media.Enabled() {
		log.Info().Msg("[Server] Object storage not configured, media uploads disabled")
	}

	limiter := authmw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 2*time.Minute)
	defer limiter.Stop()

	svcs := NewServices(cfg, repos, postCache, publisher, media)

	// 4. Serve until interrupted
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouterFromServices(cfg, svcs, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("[Server] Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the repositories for the configured driver. db is nil
// for the memory store.
func openStore(ctx context.Context, cfg *config.Config) (Repositories, *sqlx.DB, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("[Server] Using the in-memory store, data is lost on restart")
		store := memory.New()
		return Repositories{
			Users:    store.Users(),
			Posts:    store.Posts(),
			Comments: store.Comments(),
			Config:   store.Config(),
		}, nil, nil
	}

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return Repositories{}, nil, err
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return Repositories{}, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return Repositories{
		Users:    repository.NewUserRepository(db),
		Posts:    repository.NewPostRepository(db),
		Comments: repository.NewCommentRepository(db),
		Config:   repository.NewConfigRepository(db),
	}, db, nil
}
