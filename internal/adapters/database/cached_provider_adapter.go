package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

// Cache TTLs (in seconds)
const (
	providerByIDTTL   = 300 // 5 minutes for single provider
	providersListTTL  = 60  // 1 minute for the active list
	providerCacheName = "providers"
)

// CachedProviderAdapter wraps a ProviderRepository with caching so the
// database is not read on every aggregation.
type CachedProviderAdapter struct {
	adapter repositories.ProviderRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedProviderAdapter creates a new cached provider adapter
func NewCachedProviderAdapter(adapter repositories.ProviderRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.ProviderRepository {
	return &CachedProviderAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Cache key generators
func providerCacheKey(id string) string {
	return fmt.Sprintf("provider:%s", id)
}

const providersListCacheKey = "providers:active"

// GetByID retrieves a provider by ID with caching
func (a *CachedProviderAdapter) GetByID(ctx context.Context, id string) (*entities.MovingProvider, error) {
	cacheKey := providerCacheKey(id)
	logger := observability.LoggerFromContext(ctx)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var provider entities.MovingProvider
		if err := json.Unmarshal(cached, &provider); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, providerCacheName)
			return &provider, nil
		}
		logger.Warn().Str("provider_id", id).Err(err).Msg("Failed to unmarshal cached provider")
	}
	observability.RecordCacheMiss(ctx, a.metrics, providerCacheName)

	provider, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.store(ctx, cacheKey, provider, providerByIDTTL)
	return provider, nil
}

// ListActive retrieves active providers with caching
func (a *CachedProviderAdapter) ListActive(ctx context.Context) ([]entities.MovingProvider, error) {
	logger := observability.LoggerFromContext(ctx)

	if cached, err := a.cache.Get(ctx, providersListCacheKey); err == nil {
		var list []entities.MovingProvider
		if err := json.Unmarshal(cached, &list); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, providerCacheName)
			return list, nil
		}
		logger.Warn().Err(err).Msg("Failed to unmarshal cached provider list")
	}
	observability.RecordCacheMiss(ctx, a.metrics, providerCacheName)

	list, err := a.adapter.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	a.store(ctx, providersListCacheKey, list, providersListTTL)
	return list, nil
}

// store writes through with a short deadline detached from the request, so a
// cancelled request still populates the cache.
func (a *CachedProviderAdapter) store(ctx context.Context, key string, value interface{}, ttlSeconds int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := a.cache.Set(setCtx, key, data, ttlSeconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Str("key", key).Err(err).Msg("Failed to cache providers")
	}
}
