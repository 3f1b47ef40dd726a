package shared

import (
	"context"
	"log/slog"
)

// Notification kinds.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Notifier delivers fire-and-forget user-visible outcomes.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	Info(ctx context.Context, message string)
}

// FlashNotifier queues notifications as session flash messages. When the
// context carries no session (jobs, expired sessions) the message is only
// logged; delivery is best effort by contract.
type FlashNotifier struct {
	logger *slog.Logger
}

// NewFlashNotifier constructs a FlashNotifier.
func NewFlashNotifier(logger *slog.Logger) *FlashNotifier {
	return &FlashNotifier{logger: logger}
}

// Success queues a success notification.
func (n *FlashNotifier) Success(ctx context.Context, message string) {
	n.notify(ctx, NotifySuccess, message)
}

// Error queues an error notification.
func (n *FlashNotifier) Error(ctx context.Context, message string) {
	n.notify(ctx, NotifyError, message)
}

// Info queues an informational notification.
func (n *FlashNotifier) Info(ctx context.Context, message string) {
	n.notify(ctx, NotifyInfo, message)
}

func (n *FlashNotifier) notify(ctx context.Context, kind, message string) {
	sess := SessionFromContext(ctx)
	if sess == nil || sess.Destroyed() {
		if n.logger != nil {
			n.logger.Info("notification without session", slog.String("kind", kind), slog.String("message", message))
		}
		return
	}
	sess.AddFlash(FlashMessage{Kind: kind, Message: message})
}
