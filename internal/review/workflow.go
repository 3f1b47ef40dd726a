package review

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/opsdesk/opsdesk/internal/shared"
)

var (
	// ErrNotPending rejects an action on an already-resolved record.
	ErrNotPending = errors.New("review: record is not pending")
	// ErrReasonRequired rejects a reject without a reason.
	ErrReasonRequired = errors.New("review: rejection reason required")
	// ErrInvalidAmount rejects a non-positive approved amount.
	ErrInvalidAmount = errors.New("review: approved amount must be positive")
)

const genericActionFailure = "Could not complete the action. The record is unchanged."

// Actioner performs the screen's upstream approve/reject calls.
type Actioner interface {
	Approve(ctx context.Context, id, note string, amount *float64) error
	Reject(ctx context.Context, id, reason string) error
}

// userMessager is satisfied by upstream errors carrying a backend message.
type userMessager interface {
	UserMessage() string
}

// Workflow drives the pending → resolved transition for one screen:
// stage a confirmation, confirm it exactly once, settle with a notification
// and a list refetch. A failed action leaves the record pending.
type Workflow struct {
	screen        string
	actions       Actioner
	confirmations *ConfirmationStore
	recorder      *shared.DecisionRecorder
	notifier      shared.Notifier
	logger        *slog.Logger
	inflight      singleflight.Group
}

// NewWorkflow wires a Workflow for a screen. recorder may be nil when the
// console runs without a local audit database.
func NewWorkflow(screen string, actions Actioner, confirmations *ConfirmationStore, recorder *shared.DecisionRecorder, notifier shared.Notifier, logger *slog.Logger) *Workflow {
	return &Workflow{
		screen:        screen,
		actions:       actions,
		confirmations: confirmations,
		recorder:      recorder,
		notifier:      notifier,
		logger:        logger,
	}
}

// Stage creates a dismissible confirmation for a pending record. Monetary
// approvals carry the record's amount as the editable default.
func (w *Workflow) Stage(ctx context.Context, rec Reviewable, decision Decision) (Confirmation, error) {
	if rec.ReviewState() != StatePending {
		return Confirmation{}, ErrNotPending
	}
	c := Confirmation{
		Screen:   w.screen,
		RecordID: rec.ReviewID(),
		Decision: decision,
	}
	if decision == DecisionApprove {
		if m, ok := rec.(Monetary); ok {
			amount, currency := m.ReviewAmount()
			c.Amount = &amount
			c.Currency = currency
		}
	}
	return w.confirmations.Stage(ctx, c)
}

// Dismiss drops a staged confirmation; nothing has happened upstream.
func (w *Workflow) Dismiss(ctx context.Context, token string) error {
	return w.confirmations.Dismiss(ctx, w.screen, token)
}

// ConfirmInput carries the operator's final form values.
type ConfirmInput struct {
	Token          string
	ActorID        string
	Note           string
	Reason         string
	ApprovedAmount *float64
}

// Confirm consumes a staged confirmation and performs its action exactly
// once. Concurrent confirms for the same record share a single upstream
// call; a consumed token cannot be replayed. On success it emits a success
// notification, records the decision and triggers exactly one refetch; on
// failure the record stays pending and the backend's message is surfaced.
func (w *Workflow) Confirm(ctx context.Context, in ConfirmInput, refetch func(context.Context) error) error {
	// Validate against a peek first: a rejected form must leave the staged
	// confirmation intact for the operator's retry.
	c, err := w.confirmations.Peek(ctx, w.screen, in.Token)
	if err != nil {
		return err
	}

	amount := c.Amount
	if c.Decision == DecisionApprove {
		if in.ApprovedAmount != nil {
			amount = in.ApprovedAmount
		}
		if amount != nil && *amount <= 0 {
			return ErrInvalidAmount
		}
	}
	if c.Decision == DecisionReject && in.Reason == "" {
		return ErrReasonRequired
	}

	if c, err = w.confirmations.Take(ctx, w.screen, in.Token); err != nil {
		return err
	}

	key := w.screen + "|" + c.RecordID
	_, err, _ = w.inflight.Do(key, func() (any, error) {
		switch c.Decision {
		case DecisionApprove:
			return nil, w.actions.Approve(ctx, c.RecordID, in.Note, amount)
		case DecisionReject:
			return nil, w.actions.Reject(ctx, c.RecordID, in.Reason)
		default:
			return nil, errors.New("review: unknown decision")
		}
	})
	if err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			return err
		}
		message := genericActionFailure
		var um userMessager
		if errors.As(err, &um) && um.UserMessage() != "" {
			message = um.UserMessage()
		}
		if w.notifier != nil {
			w.notifier.Error(ctx, message)
		}
		if w.logger != nil {
			w.logger.Warn("moderation action failed",
				slog.String("screen", w.screen),
				slog.String("record", c.RecordID),
				slog.String("decision", string(c.Decision)),
				slog.Any("error", err))
		}
		return err
	}

	w.recordDecision(ctx, c, in, amount)
	if w.notifier != nil {
		switch c.Decision {
		case DecisionApprove:
			w.notifier.Success(ctx, "Request approved.")
		case DecisionReject:
			w.notifier.Success(ctx, "Request rejected.")
		}
	}

	if refetch != nil {
		if err := refetch(ctx); err != nil && !errors.Is(err, shared.ErrSessionExpired) {
			// The action settled; a silent stale badge is worse than a toast.
			if w.notifier != nil {
				w.notifier.Error(ctx, "The decision was saved but the list could not be refreshed.")
			}
		}
	}
	return nil
}

func (w *Workflow) recordDecision(ctx context.Context, c Confirmation, in ConfirmInput, amount *float64) {
	if w.recorder == nil {
		return
	}
	action := shared.DecisionApprove
	note := in.Note
	if c.Decision == DecisionReject {
		action = shared.DecisionReject
		note = in.Reason
	}
	entry := shared.DecisionLog{
		Screen:   w.screen,
		RefID:    c.RecordID,
		ActorID:  in.ActorID,
		Action:   action,
		Note:     note,
		Amount:   amount,
		Currency: c.Currency,
	}
	if err := w.recorder.Record(ctx, entry); err != nil && w.logger != nil {
		w.logger.Warn("record decision", slog.Any("error", err))
	}
}
