package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/opsdesk/opsdesk/internal/app"
	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/observability"
	"github.com/opsdesk/opsdesk/internal/platform/cache"
	"github.com/opsdesk/opsdesk/internal/platform/db"
	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/upstream"
	"github.com/opsdesk/opsdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "opsdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	client, err := upstream.New(
		cfg.UpstreamBaseURL,
		sessionManager,
		logger,
		upstream.WithRateLimit(cfg.UpstreamRateLimit, cfg.UpstreamRateBurst),
		upstream.WithServiceToken(cfg.UpstreamServiceToken),
	)
	if err != nil {
		logger.Error("upstream client", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	notifier := shared.NewFlashNotifier(logger)
	recorder := shared.NewDecisionRecorder(dbpool, logger)
	confirmations := review.NewConfirmationStore(redisClient, cfg.ConfirmationTTL)
	collectionCache := console.NewCollectionCache(redisClient, cfg.CollectionTTL, logger)

	authHandler := auth.NewHandler(logger, client, sessionManager, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Metrics:        metrics,
		AuthHandler:    authHandler,
		JobsHandler:    jobsHandler,
		Screens: console.Deps{
			Logger:        logger,
			Client:        client,
			Cache:         collectionCache,
			Confirmations: confirmations,
			Recorder:      recorder,
			Notifier:      notifier,
			PageSize:      cfg.ScreenPageSize,
			IdleTTL:       cfg.ScreenIdleTTL,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
