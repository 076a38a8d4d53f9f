package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"macrocal/internal/config"
)

const defaultRedisTimeout = 500 * time.Millisecond

// RedisStore shares cached lookups between replicas. Every call is bounded by OpTimeout.
type RedisStore struct {
	Client    *redis.Client
	OpTimeout time.Duration
}

func NewRedisStore(cfg config.CacheConfig) *RedisStore {
	timeout := cfg.OpTimeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	return &RedisStore{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
		OpTimeout: timeout,
	}
}

func (s *RedisStore) op(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.OpTimeout)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.op(ctx)
	defer cancel()
	b, err := s.Client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.op(ctx)
	defer cancel()
	if ttl < 0 {
		ttl = 0
	}
	return s.Client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := s.op(ctx)
	defer cancel()
	return s.Client.Del(ctx, key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.op(ctx)
	defer cancel()
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}
