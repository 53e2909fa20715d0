package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	corecache "3tcapital/phonecheck/internal/core/cache"
)

// ErrInvalidTTL is returned by Set for a zero or negative ttl.
var ErrInvalidTTL = errors.New("cache ttl must be positive")

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a capacity-bounded LRU cache with per-entry expiry.
// It is safe for concurrent use.
type MemoryCache struct {
	entries *lru.Cache
	now     func() time.Time
}

var _ corecache.Store = (*MemoryCache)(nil)

// NewMemoryCache creates a cache holding at most maxEntries values.
func NewMemoryCache(maxEntries int) (*MemoryCache, error) {
	entries, err := lru.New(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCache{entries: entries, now: time.Now}, nil
}

// Get returns a copy of the cached value if present and not expired.
// Expired entries are removed on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}

	entry := raw.(memoryEntry)
	if !c.now().Before(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false, nil
	}

	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a copy of value under key for ttl, evicting the least recently used entry when full.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	c.entries.Add(key, memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}
