package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/adminkit-backend/api"
	"github.com/angelmondragon/adminkit-backend/api/controllers"
	"github.com/angelmondragon/adminkit-backend/api/routes"
	"github.com/angelmondragon/adminkit-backend/internal/accounts"
	"github.com/angelmondragon/adminkit-backend/internal/auth"
	"github.com/angelmondragon/adminkit-backend/internal/cron"
	"github.com/angelmondragon/adminkit-backend/internal/dashboard"
	"github.com/angelmondragon/adminkit-backend/internal/media"
	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	"github.com/angelmondragon/adminkit-backend/internal/profile"
	"github.com/angelmondragon/adminkit-backend/internal/settings"
	"github.com/angelmondragon/adminkit-backend/internal/system"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db"
	"github.com/angelmondragon/adminkit-backend/pkg/email"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/metrics"
	"github.com/angelmondragon/adminkit-backend/pkg/migrate"
	"github.com/angelmondragon/adminkit-backend/pkg/ratelimit"
	"github.com/angelmondragon/adminkit-backend/pkg/redis"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/angelmondragon/adminkit-backend/pkg/storage/s3"
)

const shutdownTimeout = 15 * time.Second

// objectStorage is the bucket surface shared by the avatar and media services.
type objectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (s3.Object, error)
	List(ctx context.Context, prefix string) ([]s3.Object, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

func main() {
	startedAt := time.Now()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg, startedAt); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, startedAt time.Time) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	rateLimitMetrics := metrics.NewRateLimitMetrics(registry)
	notificationMetrics := metrics.NewNotificationMetrics(registry)
	janitorMetrics := metrics.NewJanitorMetrics(registry)

	readiness := []controllers.ReadinessCheck{{Name: "database", Check: dbClient.Ping}}

	var (
		redisClient    *redis.Client
		rateStore      ratelimit.Store
		janitorLock    cron.Lock
		memoryLimiter  *ratelimit.MemoryStore
		idempotencyKVs redis.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Check: redisClient.Ping})

		redisLimiter, err := ratelimit.NewRedisStore(redisClient)
		if err != nil {
			return err
		}
		rateStore = redisLimiter
		idempotencyKVs = redisClient

		lock, err := cron.NewRedisLock(redisClient, cron.DefaultLockKey, 0)
		if err != nil {
			return err
		}
		janitorLock = lock
	} else {
		memoryLimiter = ratelimit.NewMemoryStore()
		defer memoryLimiter.Stop()
		rateStore = memoryLimiter
	}

	var storage objectStorage
	if cfg.Storage.Enabled() {
		s3Client, err := s3.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		storage = s3Client
	} else {
		logg.Warn(ctx, "S3_BUCKET not set, media and avatar uploads are disabled")
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	accountRepo := accounts.NewRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)
	verificationRepo := auth.NewVerificationRepository(gormDB)
	settingsRepo := settings.NewRepository(gormDB)
	hasher := security.NewHasher(cfg.Password)

	sessionManager, err := session.NewManager(sessionRepo, userRepo, cfg.Auth)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessionManager.Close(); err != nil {
			logg.Error(context.Background(), "error closing session cache", err)
		}
	}()
	cookies := session.NewCookies(cfg.Auth, cfg.App)

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Sender:   email.NewSender(cfg.Email, logg),
		Logger:   logg,
		Metrics:  notificationMetrics,
		AppName:  cfg.Email.AppName,
		LoginURL: cfg.App.FrontendURL + "/login",
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:         userRepo,
		Accounts:      accountRepo,
		Verifications: verificationRepo,
		Sessions:      sessionManager,
		Hasher:        hasher,
		Notifications: notifier,
		Logger:        logg,
		AuthConfig:    cfg.Auth,
		AppConfig:     cfg.App,
	})
	if err != nil {
		return err
	}

	oauthService, err := auth.NewOAuthService(auth.OAuthParams{
		Users:         userRepo,
		Accounts:      accountRepo,
		Verifications: verificationRepo,
		Sessions:      sessionManager,
		Logger:        logg,
		Providers:     auth.ProvidersFromConfig(cfg.OAuth),
		BaseURL:       cfg.Auth.BaseURL,
		FrontendURL:   cfg.App.FrontendURL,
		Trusted:       append(cfg.App.CORSOrigins(), cfg.App.FrontendURL),
	})
	if err != nil {
		return err
	}

	userService, err := users.NewService(users.ServiceParams{
		Repo:            userRepo,
		Hasher:          hasher,
		Sessions:        sessionManager,
		Resets:          authService,
		Notifications:   notifier,
		Logger:          logg,
		BulkConcurrency: cfg.Admin.BulkConcurrency,
	})
	if err != nil {
		return err
	}

	profileParams := profile.ServiceParams{
		Users:    userRepo,
		Accounts: accountRepo,
		Settings: profile.NewSettingsRepository(gormDB),
		Hasher:   hasher,
		Sessions: sessionManager,
		Logger:   logg,
	}
	if storage != nil {
		profileParams.Avatars = storage
	}
	profileService, err := profile.NewService(profileParams)
	if err != nil {
		return err
	}

	var mediaService media.Service
	if storage != nil {
		mediaService, err = media.NewService(storage, settingsRepo, logg)
	} else {
		mediaService, err = media.NewService(nil, settingsRepo, logg)
	}
	if err != nil {
		return err
	}

	settingsService, err := settings.NewService(settingsRepo)
	if err != nil {
		return err
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(gormDB))
	if err != nil {
		return err
	}

	systemService, err := system.NewService(system.ServiceParams{
		DB:          dbClient,
		Providers:   cfg.ConfiguredProviders(),
		Environment: cfg.App.Env,
		Version:     cfg.App.Version,
		StartedAt:   startedAt,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	janitor, err := buildJanitor(logg, janitorLock, janitorMetrics, sessionRepo, verificationRepo)
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Config:           cfg,
		Logger:           logg,
		StartedAt:        startedAt,
		Gatherer:         registry,
		HTTPMetrics:      httpMetrics,
		RateLimitMetrics: rateLimitMetrics,
		RateLimitStore:   rateStore,
		Readiness:        readiness,
		Sessions:         sessionManager,
		Cookies:          cookies,
		Auth:             authService,
		OAuth:            oauthService,
		Users:            userService,
		Profile:          profileService,
		Media:            mediaService,
		Settings:         settingsService,
		Dashboard:        dashboardService,
		System:           systemService,
	}
	if idempotencyKVs != nil {
		deps.Idempotency = idempotencyKVs
	}
	server := api.NewServer(cfg, routes.NewRouter(deps))

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      server.Addr,
		"redis":     cfg.Redis.Enabled(),
		"storage":   cfg.Storage.Enabled(),
		"providers": cfg.ConfiguredProviders(),
	})
	logg.Info(logCtx, "starting api server")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := janitor.Run(groupCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func buildJanitor(logg *logger.Logger, lock cron.Lock, m *metrics.JanitorMetrics, sessions cron.ExpiredDeleter, verifications cron.ExpiredDeleter) (*cron.Service, error) {
	sessionJob, err := cron.NewExpiredCleanupJob("expired-sessions", sessions)
	if err != nil {
		return nil, err
	}
	verificationJob, err := cron.NewExpiredCleanupJob("expired-verifications", verifications)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sessionJob, verificationJob),
		Lock:     lock,
		Metrics:  m,
	})
}
