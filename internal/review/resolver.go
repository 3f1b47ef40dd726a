package review

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opsdesk/opsdesk/internal/shared"
)

// FetchDetail pulls the enriched record for an id.
type FetchDetail[T any] func(ctx context.Context, id string) (T, error)

// Resolver fetches detail records with the summary fallback the console
// promises: viewing details is never blocked by a flaky detail endpoint
// when a usable summary is already held.
type Resolver[T any] struct {
	fetch  FetchDetail[T]
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver[T any](fetch FetchDetail[T], logger *slog.Logger) *Resolver[T] {
	return &Resolver[T]{fetch: fetch, logger: logger}
}

// Resolve returns the enriched record, or the summary unchanged when the
// detail fetch fails for any reason short of an expired session.
func (r *Resolver[T]) Resolve(ctx context.Context, id string, summary T) (T, error) {
	detail, err := r.fetch(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			return summary, err
		}
		if r.logger != nil {
			r.logger.Warn("detail fetch failed, serving summary", slog.String("id", id), slog.Any("error", err))
		}
		return summary, nil
	}
	return detail, nil
}
