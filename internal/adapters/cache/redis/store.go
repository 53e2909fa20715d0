package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"3tcapital/phonecheck/internal/core/cache"
)

// DefaultKeyPrefix namespaces every key written by the service.
const DefaultKeyPrefix = "phonecheck:"

// Store is a Redis-backed cache.Store. Expiry uses SET with EX, so eviction
// beyond TTL follows the server's maxmemory policy.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ cache.Store = (*Store)(nil)

// StoreOption configures a Store instance.
type StoreOption func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore constructs a Redis-backed result cache.
func NewStore(client redis.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the stored bytes, or false when the key is absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
