package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/opsdesk/opsdesk/internal/jobs"
)

// DecisionPruner removes decision log entries older than the given age.
type DecisionPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// DecisionCleanupJob prunes the local decision audit trail down to the
// configured retention window.
type DecisionCleanupJob struct {
	Pruner    DecisionPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDecisionCleanupJob wires dependencies for the retention handler.
func NewDecisionCleanupJob(pruner DecisionPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *DecisionCleanupJob {
	return &DecisionCleanupJob{
		Pruner:    pruner,
		Retention: retention,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Handle processes decision retention tasks.
func (j *DecisionCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pruner == nil {
		return errors.New("decision cleanup: handler not configured")
	}
	var payload DecisionCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDecisionCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	retention := j.Retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}
	if retention <= 0 {
		return asynq.SkipRetry
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := j.Pruner.Cleanup(cleanupCtx, retention); err != nil {
		resultErr = err
		j.logger().Error("prune decisions", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("pruned decision log", slog.Duration("retention", retention))
	return resultErr
}

func (j *DecisionCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDecisionCleanup))
	}
	return slog.Default().With(slog.String("job", TaskDecisionCleanup))
}

func (j *DecisionCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
