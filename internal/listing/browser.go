package listing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/opsdesk/opsdesk/internal/shared"
)

// Strategy selects how a screen pulls its records. A screen declares exactly
// one at configuration time; the legacy habit of filtering a single fetched
// server page on the client is unrepresentable here.
type Strategy int

const (
	// ClientPaginated fetches the full collection once per coarse filter
	// change; predicates and paging run locally with zero further network.
	ClientPaginated Strategy = iota
	// ServerPaginated fetches one page per navigation and trusts upstream
	// totals; client predicates are disabled.
	ServerPaginated
)

var (
	// ErrPredicatesUnsupported rejects a client predicate on a
	// server-paginated screen.
	ErrPredicatesUnsupported = errors.New("listing: client filters unavailable on a server-paginated screen")
	// ErrUnknownFilter rejects a filter key the screen never configured.
	ErrUnknownFilter = errors.New("listing: unknown filter key")
)

// FetchAllFunc pulls the entire collection, with the coarse filters the
// upstream understands.
type FetchAllFunc[T any] func(ctx context.Context, filters map[string]string) ([]T, error)

// FetchPageFunc pulls a single page; it returns items, the upstream's
// totalPages and totalItems (zero when the upstream omitted them).
type FetchPageFunc[T any] func(ctx context.Context, page, pageSize int, filters map[string]string) ([]T, int, int, error)

// Config wires one screen's list behaviour.
type Config[T any] struct {
	Strategy  Strategy
	PageSize  int
	Filters   *FilterSet[T]
	Coarse    []string
	FetchAll  FetchAllFunc[T]
	FetchPage FetchPageFunc[T]
	Notifier  shared.Notifier
	Logger    *slog.Logger
}

// Browser orchestrates fetch, filter, paginate and the render model for one
// screen instance. Handlers for the same operator session may race; the
// mutex serialises them, and the generation counter guarantees that when
// requests overlap only the most recently issued fetch lands.
type Browser[T any] struct {
	mu         sync.Mutex
	cfg        Config[T]
	state      State
	all        []T
	rows       []T
	generation uint64
	inflight   int
	hasData    bool
	lastErr    string
}

// NewBrowser validates the configuration and builds a Browser in its
// mount state. The first fetch happens on Mount.
func NewBrowser[T any](cfg Config[T]) (*Browser[T], error) {
	switch cfg.Strategy {
	case ClientPaginated:
		if cfg.FetchAll == nil {
			return nil, errors.New("listing: client pagination requires FetchAll")
		}
	case ServerPaginated:
		if cfg.FetchPage == nil {
			return nil, errors.New("listing: server pagination requires FetchPage")
		}
		if cfg.Filters != nil {
			return nil, ErrPredicatesUnsupported
		}
	default:
		return nil, errors.New("listing: unknown strategy")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Browser[T]{cfg: cfg, state: NewState(cfg.PageSize)}, nil
}

// Mount performs the initial fetch.
func (b *Browser[T]) Mount(ctx context.Context) error {
	return b.fetch(ctx)
}

// Refetch re-pulls the current collection or page; the moderation workflow
// calls this after every settled action so badges reflect server truth.
func (b *Browser[T]) Refetch(ctx context.Context) error {
	return b.fetch(ctx)
}

// ApplyFilter sets one filter value. Coarse keys refetch from the upstream;
// predicate keys re-filter the held collection synchronously with no network.
func (b *Browser[T]) ApplyFilter(ctx context.Context, key, value string) error {
	b.mu.Lock()
	coarse := b.isCoarse(key)
	if !coarse {
		if b.cfg.Strategy == ServerPaginated {
			b.mu.Unlock()
			return ErrPredicatesUnsupported
		}
		if !b.cfg.Filters.Defined(key) {
			b.mu.Unlock()
			return ErrUnknownFilter
		}
	}
	b.state = b.state.ApplyFilter(key, value)
	if !coarse {
		b.recomputeLocked()
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()
	return b.fetch(ctx)
}

// ClearFilters resets every filter. A refetch happens only when a coarse
// filter had been narrowing the upstream query.
func (b *Browser[T]) ClearFilters(ctx context.Context) error {
	b.mu.Lock()
	hadCoarse := false
	for key, value := range b.state.Filters {
		if value != "" && b.isCoarse(key) {
			hadCoarse = true
			break
		}
	}
	b.state = b.state.ClearFilters()
	if !hadCoarse && b.cfg.Strategy == ClientPaginated {
		b.recomputeLocked()
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()
	return b.fetch(ctx)
}

// SetPage navigates to a page. Client screens slice locally; server screens
// fetch the requested page. Clicking mid-fetch simply issues the next
// request, which supersedes the one in flight.
func (b *Browser[T]) SetPage(ctx context.Context, page int) error {
	b.mu.Lock()
	b.state = b.state.SetPage(page)
	if b.cfg.Strategy == ClientPaginated {
		b.recomputeLocked()
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()
	return b.fetch(ctx)
}

// View is the screen's render model.
type View[T any] struct {
	Rows       []T               `json:"rows"`
	Filters    map[string]string `json:"filters"`
	Pagination Pagination        `json:"pagination"`
	Loading    bool              `json:"loading"`
	Empty      bool              `json:"empty"`
	Error      string            `json:"error,omitempty"`
}

// Snapshot returns the current render model.
func (b *Browser[T]) Snapshot() View[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := append([]T(nil), b.rows...)
	filters := make(map[string]string, len(b.state.Filters))
	for k, v := range b.state.Filters {
		filters[k] = v
	}
	loading := b.inflight > 0
	return View[T]{
		Rows:       rows,
		Filters:    filters,
		Pagination: NewPagination(b.state.Page, b.state.PageSize, b.state.TotalItems, b.state.TotalPages),
		Loading:    loading,
		Empty:      b.hasData && !loading && len(rows) == 0,
		Error:      b.lastErr,
	}
}

// Rows returns the currently visible records.
func (b *Browser[T]) Rows() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]T(nil), b.rows...)
}

// Find locates a visible or held record by id.
func (b *Browser[T]) Find(match func(T) bool) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pool := b.all
	if b.cfg.Strategy == ServerPaginated {
		pool = b.rows
	}
	for _, rec := range pool {
		if match(rec) {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (b *Browser[T]) fetch(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.inflight++
	state := b.state
	coarse := b.coarseFilters(state)
	b.mu.Unlock()

	var (
		items      []T
		totalPages int
		totalItems int
		err        error
	)
	if b.cfg.Strategy == ClientPaginated {
		items, err = b.cfg.FetchAll(ctx, coarse)
	} else {
		items, totalPages, totalItems, err = b.cfg.FetchPage(ctx, state.Page, state.PageSize, coarse)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight--

	if gen != b.generation {
		// Superseded by a newer request; this result is discarded.
		return nil
	}
	if ctx.Err() != nil {
		// The screen went away; leave its last state untouched.
		return ctx.Err()
	}
	if err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			return err
		}
		b.lastErr = err.Error()
		if b.cfg.Logger != nil {
			b.cfg.Logger.Warn("list fetch failed", slog.Any("error", err))
		}
		if b.cfg.Notifier != nil {
			b.cfg.Notifier.Error(ctx, "Could not refresh the list. Showing the last loaded data.")
		}
		return err
	}

	b.lastErr = ""
	b.hasData = true
	if b.cfg.Strategy == ClientPaginated {
		// Replace, never merge.
		b.all = items
		b.recomputeLocked()
		return nil
	}
	b.rows = items
	if totalItems == 0 {
		totalItems = len(items)
	}
	b.state = b.state.ReceiveServerTotals(totalItems, totalPages)
	return nil
}

// recomputeLocked re-runs predicate filtering and local pagination over the
// held collection. Callers hold b.mu.
func (b *Browser[T]) recomputeLocked() {
	filtered := b.all
	if b.cfg.Filters != nil {
		filtered = b.cfg.Filters.Apply(b.all, b.state.Filters)
	}
	b.state = b.state.ReceiveTotal(len(filtered))
	b.rows, _ = Paginate(filtered, b.state.PageSize, b.state.Page)
}

func (b *Browser[T]) isCoarse(key string) bool {
	if b.cfg.Strategy == ServerPaginated {
		return true
	}
	for _, k := range b.cfg.Coarse {
		if k == key {
			return true
		}
	}
	return false
}

func (b *Browser[T]) coarseFilters(state State) map[string]string {
	out := make(map[string]string)
	for key, value := range state.Filters {
		if value == "" {
			continue
		}
		if b.isCoarse(key) {
			out[key] = value
		}
	}
	return out
}
