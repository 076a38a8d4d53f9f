package statapi

import (
	"context"
	"time"

	"macrocal/internal/cache"
)

// CachedProvider memoises latest values for TTL under "<provider>:<series>" keys.
// Give it a namespaced store to keep those keys apart from other users of the cache.
type CachedProvider struct {
	Inner Provider
	Store cache.Store
	TTL   time.Duration
}

func NewCachedProvider(inner Provider, store cache.Store, ttl time.Duration) Provider {
	if inner == nil || store == nil {
		return inner
	}
	return &CachedProvider{Inner: inner, Store: store, TTL: ttl}
}

func (c *CachedProvider) Name() string { return c.Inner.Name() }

func (c *CachedProvider) Latest(ctx context.Context, seriesID string) (string, bool, error) {
	key := c.Inner.Name() + ":" + seriesID
	if v, found, err := c.Store.Get(ctx, key); err == nil && found {
		return string(v), true, nil
	}
	value, ok, err := c.Inner.Latest(ctx, seriesID)
	if err != nil || !ok {
		return value, ok, err
	}
	// Cache write errors are ignored.
	_ = c.Store.Set(ctx, key, []byte(value), c.TTL)
	return value, true, nil
}
