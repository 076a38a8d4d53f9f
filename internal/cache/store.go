package cache

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"macrocal/internal/config"
)

// Store is a byte-oriented key/value cache with per-key expiry. A ttl of zero keeps
// the entry until it is deleted or evicted.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// New builds the store selected by cfg.Driver ("memory" or "redis"), scoped to cfg.KeyPrefix.
func New(cfg config.CacheConfig) (Store, error) {
	var store Store
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		store = NewMemoryStore(cfg.MaxEntries)
	case "redis":
		store = NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
	return Namespace(store, cfg.KeyPrefix), nil
}

// Namespace scopes every key of s under ns. Nested namespaces are joined with ':'.
func Namespace(s Store, ns string) Store {
	ns = strings.Trim(ns, ":")
	if s == nil || ns == "" {
		return s
	}
	if inner, ok := s.(*namespaced); ok {
		return &namespaced{inner: inner.inner, prefix: inner.prefix + ns + ":"}
	}
	return &namespaced{inner: s, prefix: ns + ":"}
}

type namespaced struct {
	inner  Store
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return n.inner.Set(ctx, n.prefix+key, value, ttl)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Ping(ctx context.Context) error {
	return n.inner.Ping(ctx)
}

// Close releases the backing connection, if the store holds one.
func Close(s Store) error {
	if n, ok := s.(*namespaced); ok {
		s = n.inner
	}
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
