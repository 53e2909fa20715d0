package cache

import (
	"context"
	"strconv"
	"time"
)

// DefaultTTL is the lifetime of every lookup result cached by the service.
const DefaultTTL = 24 * time.Hour

// Store is a shared, time-bounded key/value cache.
// Eviction beyond TTL expiry is left to the backing implementation.
type Store interface {
	// Get returns the cached value and true, or false on a miss or expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// FullRecordKey builds the cache key for a full-record lookup.
func FullRecordKey(normalized string) string {
	return "full:" + normalized
}

// FieldKey builds the cache key for a single-field lookup.
func FieldKey(normalized, field string, translit bool) string {
	return "field:" + normalized + ":" + field + ":" + strconv.FormatBool(translit)
}
