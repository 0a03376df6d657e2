package services_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/adapters/cache"
	"github.com/zatekoja/movequote/internal/adapters/providers/geolocation"
	"github.com/zatekoja/movequote/internal/adapters/providers/movers"
	"github.com/zatekoja/movequote/internal/adapters/session"
	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/pkg/config"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

var engineNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	engine  *services.QuoteEngine
	limiter *services.ProviderRateLimiter
	store   *session.CacheProfileStore
}

// newEngineFixture wires the real limiter, registry, gateway and distance
// provider with zero latency and no simulated failures.
func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()

	cfg := config.DefaultEngineConfig()
	for i := range cfg.Providers {
		cfg.Providers[i].FailureRate = 0
	}

	registry := movers.NewStaticRegistry(cfg)
	limiter := services.NewProviderRateLimiter(cfg.RateLimits, config.RateLimit{RequestLimit: 10, WindowDurationMs: 60_000})
	limiter.SetClock(func() time.Time { return engineNow })
	distance := geolocation.NewZipDistanceProvider()

	gateway := movers.NewSimulatedGateway(cfg, registry, limiter, distance, movers.GatewayOptions{
		Rand: rand.New(rand.NewPCG(1, 2)),
		Now:  func() time.Time { return engineNow },
	})

	aggregator := services.NewQuoteAggregationService(registry, gateway, distance, cfg, services.DefaultAggregationSettings(), nil)
	aggregator.SetClock(func() time.Time { return engineNow })

	cached := services.NewCachedQuoteAggregator(aggregator, cache.NewMemoryAdapter(), time.Minute, nil)
	cached.SetClock(func() time.Time { return engineNow })

	store := session.NewCacheProfileStore(cache.NewMemoryAdapter(), time.Hour)
	engine := services.NewQuoteEngine(services.EngineDeps{
		Aggregator: cached,
		Scorer:     services.NewQuoteScoringService(cfg),
		Profiles:   store,
		Registry:   registry,
		Limiter:    limiter,
		Distance:   distance,
	})
	return engineFixture{engine: engine, limiter: limiter, store: store}
}

func crossCountryRequest() entities.MoveRequest {
	return entities.MoveRequest{
		OriginZip:         "10001",
		DestinationZip:    "90210",
		MoveDate:          engineNow.AddDate(0, 0, 14),
		HomeSize:          "2-bedroom",
		RequestedServices: []string{"packing"},
	}
}

func TestQuoteEngine_CalculateQuotesEndToEnd(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.engine.CalculateQuotes(context.Background(), crossCountryRequest())
	require.NoError(t, err)

	assert.Equal(t, 5, result.ProvidersQueried)
	assert.Equal(t, 5, result.SuccessfulResponses)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, entities.MoveCategoryInternational, result.MoveCategory)

	ids := make([]string, len(result.Quotes))
	for i, q := range result.Quotes {
		ids[i] = q.ProviderID
		if i > 0 {
			assert.LessOrEqual(t, result.Quotes[i-1].TotalPrice, q.TotalPrice)
		}
		assert.Equal(t, entities.AvailabilityGood, q.Availability)
	}
	assert.Equal(t, []string{
		"thrifty-haulers",
		"reliable-relocations",
		"national-van-lines",
		"premier-moving-group",
		"white-glove-movers",
	}, ids)

	// A repeated request is answered from the cache without consuming windows.
	_, err = f.engine.CalculateQuotes(context.Background(), crossCountryRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, f.limiter.State("thrifty-haulers").RequestCount)
}

func TestQuoteEngine_CalculateQuotesRejectsInvalidRequest(t *testing.T) {
	f := newEngineFixture(t)

	req := crossCountryRequest()
	req.OriginZip = "1000"
	_, err := f.engine.CalculateQuotes(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Zero(t, f.limiter.State("thrifty-haulers").RequestCount)
}

func TestQuoteEngine_GenerateRecommendationsAccumulatesProfile(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	result, err := f.engine.CalculateQuotes(ctx, crossCountryRequest())
	require.NoError(t, err)

	first, err := f.engine.GenerateRecommendations(ctx, services.RecommendationInput{
		Text:           "I need a cheap move next week",
		Quotes:         result.Quotes,
		OriginZip:      "10001",
		DestinationZip: "90210",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)

	assert.Equal(t, entities.MoveTypeBudget, first.Profile.MoveType)
	assert.Equal(t, entities.TimelineUrgent, first.Profile.TimelineUrgency)
	assert.Equal(t, entities.IntentPricing, first.Intent)
	assert.Equal(t, entities.MoveCategoryInternational, first.MoveCategory)
	assert.Len(t, first.Scored, 5)
	require.NotNil(t, first.Result.TopChoice)
	require.NotNil(t, first.Result.BudgetOption)
	assert.GreaterOrEqual(t, first.Result.BudgetOption.Rating, 4.0)
	assert.NotEmpty(t, first.Insights.MarketAnalysis)
	assert.InDelta(t, 1.0, first.Result.Confidence, 1e-9)

	second, err := f.engine.GenerateRecommendations(ctx, services.RecommendationInput{
		SessionID: first.SessionID,
		Text:      "we also have a piano",
		Quotes:    result.Quotes,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, entities.MoveTypeBudget, second.Profile.MoveType)
	assert.True(t, second.Profile.HasNeed(entities.NeedPiano))
	assert.Equal(t, 2, second.Profile.MessagesAnalyzed)
	assert.Empty(t, second.MoveCategory)
	assert.True(t, second.Profile.ExplicitPreference)
	assert.InDelta(t, 0.9, second.Result.Confidence, 1e-9)
}

func TestQuoteEngine_EndSessionDropsProfile(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	bundle, err := f.engine.GenerateRecommendations(ctx, services.RecommendationInput{
		SessionID: "session-1",
		Text:      "premium movers please",
	})
	require.NoError(t, err)
	assert.Equal(t, entities.MoveTypePremium, bundle.Profile.MoveType)
	assert.Empty(t, bundle.Scored)
	assert.Nil(t, bundle.Result.TopChoice)

	require.NoError(t, f.engine.EndSession(ctx, "session-1"))
	_, found, err := f.store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, found)

	again, err := f.engine.GenerateRecommendations(ctx, services.RecommendationInput{SessionID: "session-1", Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, entities.MoveTypeBalanced, again.Profile.MoveType)
	assert.Equal(t, 1, again.Profile.MessagesAnalyzed)

	err = f.engine.EndSession(ctx, " ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestQuoteEngine_ProvidersAndRateLimitState(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	list, err := f.engine.Providers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	state, err := f.engine.RateLimitState(ctx, "white-glove-movers")
	require.NoError(t, err)
	assert.Equal(t, 5, state.WindowLimit)
	assert.Zero(t, state.RequestCount)

	_, err = f.engine.RateLimitState(ctx, "no-such-mover")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestQuoteEngine_ClassifyMessageDoesNotTouchSessions(t *testing.T) {
	f := newEngineFixture(t)

	intent, profile := f.engine.ClassifyMessage("Can you recommend a mover for my 3 bedroom house?")
	assert.Equal(t, entities.IntentRecommendation, intent)
	assert.Equal(t, entities.HomeSizeThreeBed, profile.HomeSizeGuess)
	assert.Equal(t, 1, profile.MessagesAnalyzed)
}
