package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/opsdesk/opsdesk/internal/app"
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/platform/cache"
	"github.com/opsdesk/opsdesk/internal/platform/db"
	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/upstream"
	"github.com/opsdesk/opsdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Jobs never carry an operator session, so every upstream call below
	// rides on the service token.
	sessionManager := shared.NewSessionManager(redisClient, "opsdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
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

	collectionCache := console.NewCollectionCache(redisClient, cfg.CollectionTTL, logger)

	scanJob := jobs.NewPendingScanJob(client, logger, nil)
	warmJob := jobs.NewCollectionWarmJob(client, collectionCache, logger, nil)
	cleanupJob := jobs.NewDecisionCleanupJob(shared.NewDecisionRecorder(dbpool, logger), cfg.DecisionRetention, logger, nil)

	scanTask, err := jobs.NewPendingScanTask()
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}
	warmTask, err := jobs.NewCollectionWarmTask()
	if err != nil {
		logger.Error("build warm task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewDecisionCleanupTask()
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReviewPendingScan, Handler: scanJob.Handle},
			{Type: jobs.TaskCollectionWarm, Handler: warmJob.Handle},
			{Type: jobs.TaskDecisionCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/30 * * * *", Task: warmTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
