package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/opsdesk/opsdesk/internal/jobs"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PendingScanJob counts records awaiting moderation on each screen and
// publishes the backlog as a gauge. It runs with the service token, so the
// counts reflect server truth rather than any operator's session view.
type PendingScanJob struct {
	Client  *upstream.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Targets []Target
}

// NewPendingScanJob wires dependencies for the backlog scan handler.
func NewPendingScanJob(client *upstream.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *PendingScanJob {
	return &PendingScanJob{
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		Targets: ModeratedTargets(),
	}
}

// Handle processes pending backlog scan tasks.
func (j *PendingScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Client == nil {
		return errors.New("pending scan: handler not configured")
	}
	var payload PendingScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReviewPendingScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting pending scan")

	scanned := 0
	for _, target := range j.targets(payload.Screens) {
		count, err := j.scanTarget(ctx, target)
		if err != nil {
			resultErr = err
			logger.Error("scan screen", slog.String("screen", target.Screen), slog.Any("error", err))
			return resultErr
		}
		j.metrics().SetPendingBacklog(target.Screen, count)
		logger.Info("pending backlog", slog.String("screen", target.Screen), slog.Int("count", count))
		scanned++
	}

	logger.Info("completed pending scan", slog.Int("screens", scanned))
	return resultErr
}

func (j *PendingScanJob) scanTarget(ctx context.Context, target Target) (int, error) {
	scanCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	// A one-item page is enough: only the total matters here.
	page, err := j.Client.ListPage(scanCtx, target.Resource, 1, 1, map[string]string{"status": "pending"})
	if err != nil {
		return 0, err
	}
	return page.TotalItems, nil
}

func (j *PendingScanJob) targets(screens []string) []Target {
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

func (j *PendingScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReviewPendingScan))
	}
	return slog.Default().With(slog.String("job", TaskReviewPendingScan))
}

func (j *PendingScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
