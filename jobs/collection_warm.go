package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/opsdesk/opsdesk/internal/console"
	jobmetrics "github.com/opsdesk/opsdesk/internal/jobs"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

// CollectionWarmJob pre-fetches the full collection of each client-paginated
// screen into the shared cache, so the first operator visit after a quiet
// period does not pay the upstream round trip.
type CollectionWarmJob struct {
	Client  *upstream.Client
	Cache   *console.CollectionCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Targets []Target
}

// NewCollectionWarmJob wires dependencies for the warm handler.
func NewCollectionWarmJob(client *upstream.Client, cache *console.CollectionCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *CollectionWarmJob {
	return &CollectionWarmJob{
		Client:  client,
		Cache:   cache,
		Logger:  logger,
		Metrics: metrics,
		Targets: WarmTargets(),
	}
}

// Handle processes collection warm tasks.
func (j *CollectionWarmJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Client == nil || j.Cache == nil {
		return errors.New("collection warm: handler not configured")
	}
	var payload CollectionWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCollectionWarm)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting collection warm")

	start := time.Now()
	warmed := 0
	for _, target := range j.targets(payload.Screens) {
		if err := j.warmTarget(ctx, target); err != nil {
			resultErr = err
			logger.Error("warm screen", slog.String("screen", target.Screen), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed collection warm", slog.Int("screens", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *CollectionWarmJob) warmTarget(ctx context.Context, target Target) error {
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	page, err := j.Client.ListAll(warmCtx, target.Resource, nil)
	if err != nil {
		return err
	}
	j.Cache.Set(warmCtx, target.Screen, nil, page.Items)
	return nil
}

func (j *CollectionWarmJob) targets(screens []string) []Target {
	if len(screens) == 0 {
		return j.Targets
	}
	wanted := make(map[string]bool, len(screens))
	for _, s := range screens {
		wanted[s] = true
	}
	out := make([]Target, 0, len(screens))
	for _, target := range j.Targets {
		if wanted[target.Screen] {
			out = append(out, target)
		}
	}
	return out
}

func (j *CollectionWarmJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCollectionWarm))
	}
	return slog.Default().With(slog.String("job", TaskCollectionWarm))
}

func (j *CollectionWarmJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
