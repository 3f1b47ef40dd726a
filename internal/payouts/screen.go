package payouts

import (
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/listing"
	"github.com/opsdesk/opsdesk/internal/review"
)

const (
	screenName = "payouts"
	resource   = "admin/payouts"
)

// NewHandler configures the payout moderation screen. Server-paginated: no
// client predicate set exists here, so a filter can only reach the upstream
// query and always applies to the whole collection, never one fetched page.
func NewHandler(d console.Deps) *console.Handler[Record] {
	workflow := review.NewWorkflow(screenName,
		review.UpstreamActions{Client: d.Client, Resource: resource},
		d.Confirmations, d.Recorder, d.Notifier, d.Logger)

	resolver := review.NewResolver(console.FetchDetail(d.Client, resource, decode), d.Logger)

	browser := func() (*listing.Browser[Record], error) {
		return listing.NewBrowser(listing.Config[Record]{
			Strategy:  listing.ServerPaginated,
			PageSize:  d.PageSize,
			FetchPage: console.FetchPage(d.Client, resource, decode),
			Notifier:  d.Notifier,
			Logger:    d.Logger,
		})
	}

	return console.NewHandler(console.ScreenConfig[Record]{
		Name:     screenName,
		Logger:   d.Logger,
		Browser:  browser,
		IdleTTL:  d.IdleTTL,
		Workflow: workflow,
		Resolver: resolver,
		Cache:    d.Cache,
	})
}
