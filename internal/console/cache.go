package console

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CollectionCache keeps fetched collections warm in Redis so a console mount
// or page change on a client-paginated screen skips the upstream round-trip.
// Entries are short-lived and invalidated whenever a moderation action
// settles on the screen.
type CollectionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCollectionCache constructs the cache.
func NewCollectionCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *CollectionCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CollectionCache{client: client, ttl: ttl, logger: logger}
}

// Get returns a cached collection for the screen and coarse filter combination.
func (c *CollectionCache) Get(ctx context.Context, screen string, coarse map[string]string) ([]json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.key(screen, coarse)).Bytes()
	if err != nil {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores a fetched collection.
func (c *CollectionCache) Set(ctx context.Context, screen string, coarse map[string]string, items []json.RawMessage) {
	if c == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(screen, coarse), data, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("collection cache set", slog.String("screen", screen), slog.Any("error", err))
	}
}

// Invalidate drops every cached combination for a screen.
func (c *CollectionCache) Invalidate(ctx context.Context, screen string) {
	if c == nil {
		return
	}
	pattern := "opsdesk:collection:" + screen + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil && c.logger != nil {
			c.logger.Warn("collection cache invalidate", slog.Any("error", err))
		}
	}
	if err := iter.Err(); err != nil && c.logger != nil {
		c.logger.Warn("collection cache scan", slog.Any("error", err))
	}
}

func (c *CollectionCache) key(screen string, coarse map[string]string) string {
	if len(coarse) == 0 {
		return "opsdesk:collection:" + screen + ":all"
	}
	parts := make([]string, 0, len(coarse))
	for k, v := range coarse {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return "opsdesk:collection:" + screen + ":" + strings.Join(parts, "&")
}
