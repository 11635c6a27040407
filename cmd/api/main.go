// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/admin"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/auth"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/calendar"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/health"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/metrics"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/middleware"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/notification"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/server"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/submission"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/upload"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/user"
)

const (
	drainDelay   = 5 * time.Second
	uploadsRoute = "/uploads/"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	if cfg.JWT.SecretGenerated {
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	backend, db, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	var (
		rdb         *core.Redis
		redisClient *goredis.Client
	)
	if cfg.Redis.URL != "" {
		rdb, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		redisClient = rdb.Client
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("REDIS_URL not set, rate limiting is per process")
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"token_ttl", jwtManager.TokenTTL(),
	)

	userSvc := user.NewService(user.NewRepository(backend))
	authSvc := auth.NewService(jwtManager, userSvc, logger)
	authHandler := auth.NewHandler(authSvc)

	dispatcher := notification.NewDispatcher(
		notification.NewSMTPMailer(cfg.Mail),
		notification.NewMailchimpClient(cfg.Mailchimp),
		notification.NewTemplateStore(),
		notification.DispatcherConfig{
			OperatorEmail: cfg.Mail.Operator(),
			FrontendURL:   cfg.Frontend.URL,
		},
		logger,
	)
	if !cfg.Mailchimp.Enabled() {
		logger.Info("mailchimp not configured, list sync disabled")
	}

	submissionSvc := submission.NewService(
		submission.NewRepository(backend),
		calendar.NewLinker(cfg.Calendar),
		dispatcher,
	)
	submissionHandler := submission.NewHandler(submissionSvc)

	assets, err := upload.NewStorage(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}
	uploadHandler := upload.NewHandler(
		upload.NewService(upload.NewRepository(backend), assets, logger),
	)

	deps := []health.Dependency{{Name: "store", Checker: backend}}
	adminCfg := admin.HandlerConfig{
		Submissions: submissionSvc,
		Users:       userSvc,
	}
	if db != nil {
		adminCfg.DBStats = db.Stats
	}
	if rdb != nil {
		deps = append(deps, health.Dependency{Name: "redis", Checker: rdb})
		adminCfg.RedisStats = rdb.PoolStats
	}
	healthHandler := health.NewHandler(deps...)
	adminCfg.Backends = healthHandler
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(otel.GetTracerProvider()))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())
	router.Handle(uploadsRoute+"*", assets.Handler(uploadsRoute))

	limiters := middleware.NewLimiters(redisClient, cfg.RateLimit, logger)
	authenticator := middleware.Authenticator(jwtManager)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, limiters.Public)
		submissionHandler.RegisterRoutes(r, authenticator, limiters.Public)
		uploadHandler.RegisterRoutes(r, authenticator, limiters.Uploads)
		adminHandler.RegisterRoutes(r, authenticator)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("waiting for pending notifications")
	dispatcher.Wait()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

// openStore returns the record store and, for the postgres driver, the
// underlying database handle so it can be closed on shutdown.
func openStore(
	ctx context.Context,
	cfg config.StorageConfig,
	logger *slog.Logger,
) (store.Store, *core.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := core.NewDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		pg, err := store.NewPostgresStore(ctx, db.DB)
		if err != nil {
			_ = db.Close() //nolint:errcheck // cleanup on setup failure
			return nil, nil, err
		}
		logger.Info("postgres record store ready",
			"max_open_conns", cfg.MaxOpenConns,
			"max_idle_conns", cfg.MaxIdleConns,
		)
		return pg, db, nil
	case config.DriverFile:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file record store ready", "data_dir", cfg.DataDir)
		return fs, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
