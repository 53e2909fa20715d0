package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"3tcapital/phonecheck/internal/core/cache"
	"3tcapital/phonecheck/internal/core/phone"
	"3tcapital/phonecheck/internal/infrastructure/metrics"
	"3tcapital/phonecheck/internal/infrastructure/security"
)

// Cache entry kinds used as metric labels.
const (
	kindFull  = "full"
	kindField = "field"
)

// CacheObserver counts result cache hits, misses and errors.
type CacheObserver interface {
	ObserveCache(kind, result string)
}

// CachedProvider is a cache-aside phone.Provider. It consults the result cache
// before the wrapped provider and fills it after a successful fetch.
// Cache failures degrade to a miss and never fail the lookup.
type CachedProvider struct {
	provider phone.Provider
	cache    cache.Store
	ttl      time.Duration
	log      *slog.Logger
	observer CacheObserver
}

var _ phone.Provider = (*CachedProvider)(nil)

// NewCachedProvider wraps provider with store. A non-positive ttl uses cache.DefaultTTL.
// observer may be nil.
func NewCachedProvider(provider phone.Provider, store cache.Store, ttl time.Duration, log *slog.Logger, observer CacheObserver) *CachedProvider {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &CachedProvider{
		provider: provider,
		cache:    store,
		ttl:      ttl,
		log:      log,
		observer: observer,
	}
}

// FetchFullRecord returns the cached full record for normalized, fetching it on a miss.
func (p *CachedProvider) FetchFullRecord(ctx context.Context, normalized string) (*phone.RawRecord, error) {
	key := cache.FullRecordKey(normalized)

	if cached, ok := p.get(ctx, kindFull, key); ok {
		var record phone.RawRecord
		if err := json.Unmarshal(cached, &record); err == nil && !record.Empty() {
			return &record, nil
		}
		p.log.Warn("Discarding undecodable cache entry", "kind", kindFull, "number", security.MaskNumber(normalized))
	}

	record, err := p.provider.FetchFullRecord(ctx, normalized)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		p.log.Warn("Failed to encode record for cache", "error", err, "number", security.MaskNumber(normalized))
		return record, nil
	}
	p.set(ctx, kindFull, key, payload)

	return record, nil
}

// FetchField returns the cached field value, fetching it on a miss.
func (p *CachedProvider) FetchField(ctx context.Context, normalized, field string, translit bool) (string, error) {
	key := cache.FieldKey(normalized, field, translit)

	if cached, ok := p.get(ctx, kindField, key); ok && len(cached) > 0 {
		return string(cached), nil
	}

	value, err := p.provider.FetchField(ctx, normalized, field, translit)
	if err != nil {
		return "", err
	}

	p.set(ctx, kindField, key, []byte(value))
	return value, nil
}

func (p *CachedProvider) get(ctx context.Context, kind, key string) ([]byte, bool) {
	value, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.log.Warn("Result cache read failed, treating as miss", "error", err, "kind", kind)
		p.observe(kind, metrics.ResultError)
		return nil, false
	case !ok:
		p.observe(kind, metrics.ResultMiss)
		return nil, false
	default:
		p.observe(kind, metrics.ResultHit)
		return value, true
	}
}

func (p *CachedProvider) set(ctx context.Context, kind, key string, value []byte) {
	if err := p.cache.Set(ctx, key, value, p.ttl); err != nil {
		p.log.Warn("Result cache write failed", "error", err, "kind", kind)
	}
}

func (p *CachedProvider) observe(kind, result string) {
	if p.observer != nil {
		p.observer.ObserveCache(kind, result)
	}
}
