package console

import (
	"log/slog"
	"time"

	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

// Deps bundles what every screen package needs to wire itself.
type Deps struct {
	Logger        *slog.Logger
	Client        *upstream.Client
	Cache         *CollectionCache
	Confirmations *review.ConfirmationStore
	Recorder      *shared.DecisionRecorder
	Notifier      shared.Notifier
	PageSize      int
	IdleTTL       time.Duration
}
