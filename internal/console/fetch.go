package console

import (
	"context"
	"encoding/json"

	"github.com/opsdesk/opsdesk/internal/listing"
	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

// Decoder turns one normalized upstream item into a screen record.
type Decoder[T any] func(json.RawMessage) (T, error)

// FetchAll builds a client-pagination fetcher for an upstream resource,
// reading through the collection cache when one is configured.
func FetchAll[T any](client *upstream.Client, cache *CollectionCache, screen, resource string, decode Decoder[T]) listing.FetchAllFunc[T] {
	return func(ctx context.Context, filters map[string]string) ([]T, error) {
		if cache != nil {
			if raw, ok := cache.Get(ctx, screen, filters); ok {
				return decodeAll(raw, decode)
			}
		}
		page, err := client.ListAll(ctx, resource, filters)
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cache.Set(ctx, screen, filters, page.Items)
		}
		return decodeAll(page.Items, decode)
	}
}

// FetchPage builds a server-pagination fetcher for an upstream resource.
func FetchPage[T any](client *upstream.Client, resource string, decode Decoder[T]) listing.FetchPageFunc[T] {
	return func(ctx context.Context, page, pageSize int, filters map[string]string) ([]T, int, int, error) {
		result, err := client.ListPage(ctx, resource, page, pageSize, filters)
		if err != nil {
			return nil, 0, 0, err
		}
		items, err := decodeAll(result.Items, decode)
		if err != nil {
			return nil, 0, 0, err
		}
		return items, result.TotalPages, result.TotalItems, nil
	}
}

// FetchDetail builds the resolver fetcher for an upstream resource.
func FetchDetail[T any](client *upstream.Client, resource string, decode Decoder[T]) review.FetchDetail[T] {
	return func(ctx context.Context, id string) (T, error) {
		var raw json.RawMessage
		var zero T
		if err := client.Detail(ctx, resource, id, &raw); err != nil {
			return zero, err
		}
		return decode(raw)
	}
}

func decodeAll[T any](items []json.RawMessage, decode Decoder[T]) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		rec, err := decode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
