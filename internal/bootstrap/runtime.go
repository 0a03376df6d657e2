// Package bootstrap assembles the quote engine from configuration for the
// HTTP server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/zatekoja/movequote/internal/adapters/cache"
	"github.com/zatekoja/movequote/internal/adapters/database"
	"github.com/zatekoja/movequote/internal/adapters/events"
	"github.com/zatekoja/movequote/internal/adapters/providers/geolocation"
	"github.com/zatekoja/movequote/internal/adapters/providers/movers"
	"github.com/zatekoja/movequote/internal/adapters/session"
	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/movequote/internal/infrastructure/clients/redis"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	"github.com/zatekoja/movequote/pkg/config"
)

// Runtime is a fully wired engine plus the shared pieces the HTTP layer needs.
type Runtime struct {
	Engine       *services.QuoteEngine
	Cache        providers.CacheProvider
	Events       providers.EventBus
	Limiter      *services.ProviderRateLimiter
	EngineConfig *config.EngineConfig

	closers []func() error
}

// Close releases external connections in reverse order of creation.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the runtime. Redis is optional: when disabled or unreachable the
// quote cache, session store and event bus fall back to process memory. A postgres
// provider source is required to connect.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Runtime, error) {
	logger := observability.GetLogger()

	engineCfg, err := config.LoadEngineConfig(cfg.Engine.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config: %w", err)
	}

	rt := &Runtime{EngineConfig: engineCfg}

	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, caching quotes and sessions in memory")
		} else {
			rt.closers = append(rt.closers, redisClient.Close)
			cacheProvider = cache.NewRedisAdapter(redisClient)
			rt.Events = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
		rt.Events = events.NewMemoryEventBus()
	}
	rt.Cache = cacheProvider
	rt.closers = append(rt.closers, rt.Events.Close)

	var registry repositories.ProviderRepository
	switch cfg.Engine.ProviderSource {
	case config.ProviderSourcePostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pgClient.Close)
		registry = database.NewCachedProviderAdapter(
			database.NewProviderAdapterFromClient(pgClient, metrics),
			cacheProvider,
			metrics,
		)
		logger.Info().Msg("Provider registry backed by PostgreSQL")
	default:
		registry = movers.NewStaticRegistry(engineCfg)
		logger.Info().Int("providers", len(engineCfg.ActiveProviders())).Msg("Provider registry loaded from engine config")
	}

	rt.Limiter = services.NewProviderRateLimiter(engineCfg.RateLimits, config.RateLimit{
		RequestLimit:     cfg.Engine.DefaultRateLimit,
		WindowDurationMs: int(cfg.Engine.DefaultWindow.Milliseconds()),
	})

	distance := geolocation.NewZipDistanceProvider()
	gateway := movers.NewSimulatedGateway(engineCfg, registry, rt.Limiter, distance, movers.GatewayOptions{
		LatencyMin:  cfg.Engine.LatencyMin,
		LatencyMax:  cfg.Engine.LatencyMax,
		PriceJitter: cfg.Engine.PriceJitter,
	})

	aggregator := services.NewQuoteAggregationService(registry, gateway, distance, engineCfg, services.AggregationSettings{
		RequestTimeout: cfg.Engine.RequestTimeout,
		MaxConcurrency: cfg.Engine.MaxConcurrency,
		RetryAttempts:  cfg.Engine.RetryAttempts,
	}, metrics)

	rt.Engine = services.NewQuoteEngine(services.EngineDeps{
		Aggregator: services.NewCachedQuoteAggregator(
			services.NewPublishingQuoteAggregator(aggregator, rt.Events),
			cacheProvider,
			cfg.Engine.QuoteCacheTTL,
			metrics,
		),
		Scorer:   services.NewQuoteScoringService(engineCfg),
		Profiles: session.NewCacheProfileStore(cacheProvider, cfg.Engine.SessionTTL),
		Registry: registry,
		Limiter:  rt.Limiter,
		Distance: distance,
	})

	return rt, nil
}
