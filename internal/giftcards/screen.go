package giftcards

import (
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/listing"
	"github.com/opsdesk/opsdesk/internal/review"
)

const (
	screenName = "giftcards"
	resource   = "admin/giftcards"
)

// NewHandler configures the gift-card moderation screen: client-paginated
// over the full pending collection, with status/card/text filters.
func NewHandler(d console.Deps) *console.Handler[Record] {
	filters := listing.NewFilterSet[Record]().
		Define("status", listing.Equals(func(r Record) string { return string(r.Status) })).
		Define("kind", listing.Equals(func(r Record) string { return r.Kind })).
		Define("card", listing.Equals(func(r Record) string { return r.CardName })).
		Define("q", listing.TextSearch(
			func(r Record) string { return r.UserName },
			func(r Record) string { return r.UserEmail },
			func(r Record) string { return r.CardName },
		))

	workflow := review.NewWorkflow(screenName,
		review.UpstreamActions{Client: d.Client, Resource: resource},
		d.Confirmations, d.Recorder, d.Notifier, d.Logger)

	resolver := review.NewResolver(console.FetchDetail(d.Client, resource, decode), d.Logger)

	browser := func() (*listing.Browser[Record], error) {
		return listing.NewBrowser(listing.Config[Record]{
			Strategy: listing.ClientPaginated,
			PageSize: d.PageSize,
			Filters:  filters,
			Coarse:   []string{"period"},
			FetchAll: console.FetchAll(d.Client, d.Cache, screenName, resource, decode),
			Notifier: d.Notifier,
			Logger:   d.Logger,
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
