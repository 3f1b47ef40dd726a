package history

import (
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/listing"
	"github.com/opsdesk/opsdesk/internal/review"
)

// screens maps each history screen to its upstream resource. All three use
// server pagination; the status filter is forwarded to the upstream query.
var screens = map[string]string{
	"airtime": "admin/transactions/airtime",
	"data":    "admin/transactions/data",
	"bills":   "admin/transactions/bills",
}

// NewHandlers configures the three history screens keyed by screen name.
func NewHandlers(d console.Deps) map[string]*console.Handler[Transaction] {
	out := make(map[string]*console.Handler[Transaction], len(screens))
	for name, resource := range screens {
		out[name] = newHandler(d, name, resource)
	}
	return out
}

func newHandler(d console.Deps, name, resource string) *console.Handler[Transaction] {
	resolver := review.NewResolver(console.FetchDetail(d.Client, resource, decode), d.Logger)

	browser := func() (*listing.Browser[Transaction], error) {
		return listing.NewBrowser(listing.Config[Transaction]{
			Strategy:  listing.ServerPaginated,
			PageSize:  d.PageSize,
			FetchPage: console.FetchPage(d.Client, resource, decode),
			Notifier:  d.Notifier,
			Logger:    d.Logger,
		})
	}

	return console.NewHandler(console.ScreenConfig[Transaction]{
		Name:     "history:" + name,
		Logger:   d.Logger,
		Browser:  browser,
		IdleTTL:  d.IdleTTL,
		Resolver: resolver,
		Cache:    d.Cache,
	})
}
