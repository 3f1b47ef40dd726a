package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DecisionAction enumerates moderation decision outcomes.
type DecisionAction string

const (
	// DecisionApprove marks an approve action.
	DecisionApprove DecisionAction = "APPROVE"
	// DecisionReject marks a reject action.
	DecisionReject DecisionAction = "REJECT"
)

// DecisionLog is the local audit trail entry for a settled moderation action.
// The upstream owns the record itself; this log answers "who decided what,
// when, from this console" after the fact.
type DecisionLog struct {
	ID       int64
	Screen   string
	RefID    string
	ActorID  string
	Action   DecisionAction
	Note     string
	Amount   *float64
	Currency string
	At       time.Time
}

// DecisionRecorder persists moderation decision history.
type DecisionRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDecisionRecorder constructs DecisionRecorder.
func NewDecisionRecorder(pool *pgxpool.Pool, logger *slog.Logger) *DecisionRecorder {
	return &DecisionRecorder{pool: pool, logger: logger}
}

// Record writes a decision entry. A unique-violation replay (same screen,
// ref and action) is tolerated: the first write already captured the fact.
func (r *DecisionRecorder) Record(ctx context.Context, log DecisionLog) error {
	if r == nil || r.pool == nil {
		return errors.New("decision recorder not initialised")
	}
	if log.Screen == "" {
		return errors.New("decision screen required")
	}
	if log.RefID == "" {
		return errors.New("decision ref id required")
	}
	if log.ActorID == "" {
		return errors.New("decision actor required")
	}
	if log.Action == "" {
		return errors.New("decision action required")
	}
	at := log.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO decisions (screen, ref_id, actor_id, action, note, amount, currency, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, log.Screen, log.RefID, log.ActorID, string(log.Action), log.Note, log.Amount, log.Currency, at)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		r.logger.Error("record decision", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns decisions for a screen/ref, oldest first.
func (r *DecisionRecorder) List(ctx context.Context, screen, refID string) ([]DecisionLog, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("decision recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, screen, ref_id, actor_id, action, note, amount, currency, at
FROM decisions WHERE screen=$1 AND ref_id=$2 ORDER BY at ASC`, screen, refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []DecisionLog
	for rows.Next() {
		var l DecisionLog
		var action string
		if err := rows.Scan(&l.ID, &l.Screen, &l.RefID, &l.ActorID, &action, &l.Note, &l.Amount, &l.Currency, &l.At); err != nil {
			return nil, err
		}
		l.Action = DecisionAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// Cleanup removes entries older than retention.
func (r *DecisionRecorder) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if r == nil || r.pool == nil {
		return nil
	}
	cutoff := time.Now().Add(-olderThan)
	_, err := r.pool.Exec(ctx, `DELETE FROM decisions WHERE at < $1`, cutoff)
	return err
}
