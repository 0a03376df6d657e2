package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

const quoteCacheName = "quotes"

// QuoteAggregator produces an aggregate result for one move request.
type QuoteAggregator interface {
	Aggregate(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error)
}

var _ QuoteAggregator = (*QuoteAggregationService)(nil)

// CachedQuoteAggregator wraps an aggregator with a result cache keyed by the
// normalized request. Fallback results are never cached so a recovered
// provider pool is seen on the next call.
type CachedQuoteAggregator struct {
	inner   QuoteAggregator
	cache   providers.CacheProvider
	ttl     time.Duration
	metrics *observability.Metrics
	now     func() time.Time
}

// NewCachedQuoteAggregator creates a caching decorator
func NewCachedQuoteAggregator(inner QuoteAggregator, cache providers.CacheProvider, ttl time.Duration, metrics *observability.Metrics) *CachedQuoteAggregator {
	return &CachedQuoteAggregator{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetClock replaces the time source used to validate move dates
func (a *CachedQuoteAggregator) SetClock(now func() time.Time) {
	a.now = now
}

func quoteCacheKey(req entities.MoveRequest) string {
	return fmt.Sprintf("quotes:%s", req.Fingerprint())
}

// Aggregate returns a cached result for an identical request or delegates.
// The request is validated first so a cached result is never served for a
// move date that has since passed.
func (a *CachedQuoteAggregator) Aggregate(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error) {
	req.Normalize()
	if err := req.Validate(a.now()); err != nil {
		return nil, err
	}
	cacheKey := quoteCacheKey(req)
	logger := observability.LoggerFromContext(ctx)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var result entities.AggregateResult
		decodeErr := json.Unmarshal(cached, &result)
		if decodeErr == nil {
			observability.RecordCacheHit(ctx, a.metrics, quoteCacheName)
			return &result, nil
		}
		logger.Warn().Str("key", cacheKey).Err(decodeErr).Msg("Failed to unmarshal cached quotes")
	}
	observability.RecordCacheMiss(ctx, a.metrics, quoteCacheName)

	result, err := a.inner.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.UsedFallback || a.ttl < time.Second {
		return result, nil
	}

	if data, err := json.Marshal(result); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, int(a.ttl/time.Second)); err != nil {
			logger.Warn().Str("key", cacheKey).Err(err).Msg("Failed to cache quotes")
		}
	}
	return result, nil
}
