package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	"github.com/zatekoja/movequote/pkg/config"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
	"github.com/zatekoja/movequote/pkg/retry"
)

// FallbackQuoteCount is the number of synthetic quotes returned when no
// provider answered.
const FallbackQuoteCount = 3

// AggregationSettings bounds one fan-out.
type AggregationSettings struct {
	RequestTimeout time.Duration
	MaxConcurrency int
	RetryAttempts  int
}

// DefaultAggregationSettings returns the settings used when none are configured
func DefaultAggregationSettings() AggregationSettings {
	return AggregationSettings{
		RequestTimeout: 3 * time.Second,
		MaxConcurrency: 8,
		RetryAttempts:  2,
	}
}

// ProviderResult is the outcome of one provider task. Exactly one of Quote
// and Err is set.
type ProviderResult struct {
	ProviderID string
	Quote      *entities.Quote
	Err        error
}

// QuoteAggregationService fans a move request out to every active provider
// and joins the answers into one price-ordered result.
type QuoteAggregationService struct {
	registry repositories.ProviderRepository
	gateway  providers.QuoteGateway
	distance providers.DistanceProvider
	cfg      *config.EngineConfig
	settings AggregationSettings
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewQuoteAggregationService creates a new aggregation service
func NewQuoteAggregationService(
	registry repositories.ProviderRepository,
	gateway providers.QuoteGateway,
	distance providers.DistanceProvider,
	cfg *config.EngineConfig,
	settings AggregationSettings,
	metrics *observability.Metrics,
) *QuoteAggregationService {
	return &QuoteAggregationService{
		registry: registry,
		gateway:  gateway,
		distance: distance,
		cfg:      cfg,
		settings: settings,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for validation and timestamps
func (s *QuoteAggregationService) SetClock(now func() time.Time) {
	s.now = now
}

// Aggregate validates the request, queries all active providers concurrently
// and returns their quotes sorted by ascending price. Only validation errors
// are returned; provider failures are recorded on the result and an empty
// outcome is replaced with fallback quotes.
func (s *QuoteAggregationService) Aggregate(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error) {
	req.Normalize()
	requestedAt := s.now()
	if err := req.Validate(requestedAt); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "QuoteAggregationService.Aggregate")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	active, err := s.registry.ListActive(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list providers, answering with fallback quotes")
		observability.RecordError(span, err)
		active = nil
	}

	miles, err := s.distance.DistanceMiles(ctx, req.OriginZip, req.DestinationZip)
	if err != nil {
		logger.Warn().Err(err).
			Str("origin_zip", req.OriginZip).
			Str("destination_zip", req.DestinationZip).
			Msg("Distance estimate failed")
		miles = 0
	}

	results := s.fanOut(ctx, active, req)

	result := &entities.AggregateResult{
		Quotes:           make([]entities.Quote, 0, len(results)),
		RequestedAt:      requestedAt,
		ProvidersQueried: len(active),
		DistanceMiles:    miles,
		MoveCategory:     entities.MoveCategoryForDistance(miles),
	}
	for _, r := range results {
		if r.Err != nil {
			failure := classifyFailure(r.ProviderID, r.Err)
			result.Failures = append(result.Failures, failure)
			observability.RecordProviderCall(ctx, s.metrics, r.ProviderID, string(failure.Reason))
			logger.Warn().
				Str("provider_id", r.ProviderID).
				Str("reason", string(failure.Reason)).
				Err(r.Err).
				Msg("Provider produced no quote")
			continue
		}
		observability.RecordProviderCall(ctx, s.metrics, r.ProviderID, "")
		result.Quotes = append(result.Quotes, *r.Quote)
	}
	result.SuccessfulResponses = len(result.Quotes)

	sortByPrice(result.Quotes)

	if len(result.Quotes) == 0 {
		logger.Warn().
			Int("providers_queried", result.ProvidersQueried).
			Str("home_size", string(req.HomeSize)).
			Msg("No provider answered, using fallback quotes")
		result.Quotes = s.fallbackQuotes(req, requestedAt)
		result.UsedFallback = true
	}

	elapsed := s.now().Sub(requestedAt)
	observability.RecordAggregation(ctx, s.metrics, result.SuccessfulResponses, result.UsedFallback, elapsed)
	observability.SetSpanAttributes(span,
		attribute.Int("aggregation.providers_queried", result.ProvidersQueried),
		attribute.Int("aggregation.successful", result.SuccessfulResponses),
		attribute.Bool("aggregation.fallback", result.UsedFallback),
		attribute.Float64("aggregation.distance_miles", miles),
	)

	logger.Info().
		Int("providers_queried", result.ProvidersQueried).
		Int("successful", result.SuccessfulResponses).
		Int("failed", len(result.Failures)).
		Bool("fallback", result.UsedFallback).
		Dur("elapsed", elapsed).
		Msg("Quote aggregation complete")

	return result, nil
}

// fanOut runs one task per provider and waits for all of them. Tasks never
// return an error to the group, so one failure does not cancel its siblings.
func (s *QuoteAggregationService) fanOut(ctx context.Context, active []entities.MovingProvider, req entities.MoveRequest) []ProviderResult {
	results := make([]ProviderResult, len(active))
	if len(active) == 0 {
		return results
	}

	timeout := s.settings.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultAggregationSettings().RequestTimeout
	}
	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(deadlineCtx)
	if s.settings.MaxConcurrency > 0 {
		g.SetLimit(s.settings.MaxConcurrency)
	}

	retryCfg := retry.ProviderCallConfig(s.settings.RetryAttempts, isRetryableProviderError)
	logger := observability.LoggerFromContext(ctx)

	for i, p := range active {
		g.Go(func() error {
			var quote *entities.Quote
			err := retry.DoWithLog(gctx, retryCfg, p.ID, func() error {
				q, err := s.gateway.Quote(gctx, p.ID, req)
				if err != nil {
					return err
				}
				quote = q
				return nil
			}, func(attempt int, err error, nextDelay time.Duration) {
				logger.Debug().
					Str("provider_id", p.ID).
					Int("attempt", attempt).
					Dur("next_delay", nextDelay).
					Err(err).
					Msg("Retrying provider call")
			})
			results[i] = ProviderResult{ProviderID: p.ID, Quote: quote, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// isRetryableProviderError retries transient provider failures only. Rate
// limit rejections and expired deadlines are final.
func isRetryableProviderError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return apperrors.IsType(err, apperrors.ErrorTypeUnavailable)
}

func classifyFailure(providerID string, err error) entities.ProviderFailure {
	failure := entities.ProviderFailure{
		ProviderID: providerID,
		Reason:     entities.FailureUnavailable,
		Message:    err.Error(),
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		failure.Reason = entities.FailureTimeout
	case apperrors.IsType(err, apperrors.ErrorTypeRateLimited):
		failure.Reason = entities.FailureRateLimited
	}
	return failure
}

// sortByPrice orders quotes by ascending price, then provider id.
func sortByPrice(quotes []entities.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].TotalPrice != quotes[j].TotalPrice {
			return quotes[i].TotalPrice < quotes[j].TotalPrice
		}
		return quotes[i].ProviderID < quotes[j].ProviderID
	})
}

var fallbackProfiles = []struct {
	name     string
	rating   float64
	duration string
	services []string
}{
	{name: "Economy Estimate", rating: 4.0, duration: "3-5 days", services: []string{"Loading & Unloading", "Transport"}},
	{name: "Standard Estimate", rating: 4.3, duration: "2-4 days", services: []string{"Packing", "Loading & Unloading", "Transport", "Basic Insurance"}},
	{name: "Full Service Estimate", rating: 4.6, duration: "1-3 days", services: []string{"Full Packing", "Unpacking", "Transport", "Full Value Protection"}},
}

// fallbackQuotes derives synthetic quotes from the home-size base price. The
// PRNG is seeded by the home size, so identical sizes produce identical
// prices.
func (s *QuoteAggregationService) fallbackQuotes(req entities.MoveRequest, now time.Time) []entities.Quote {
	base := float64(s.cfg.BasePriceFor(req.HomeSize))
	seed := fallbackSeed(req.HomeSize)
	rng := rand.New(rand.NewPCG(seed, seed))

	prices := make([]int, FallbackQuoteCount)
	for i := range prices {
		prices[i] = int(math.Round(base * (0.9 + rng.Float64()*0.4)))
	}
	sort.Ints(prices)

	availability := entities.AvailabilityForDays(req.DaysUntilMove(now))
	quotes := make([]entities.Quote, FallbackQuoteCount)
	for i, price := range prices {
		profile := fallbackProfiles[i%len(fallbackProfiles)]
		quotes[i] = entities.Quote{
			ID:                fmt.Sprintf("fallback-%s-%d", req.HomeSize, i+1),
			ProviderID:        fmt.Sprintf("fallback-%d", i+1),
			CompanyName:       profile.name,
			TotalPrice:        price,
			Rating:            profile.rating,
			ServicesOffered:   append([]string(nil), profile.services...),
			EstimatedDuration: profile.duration,
			Availability:      availability,
			RetrievedAt:       now,
			Fallback:          true,
		}
	}
	return quotes
}

func fallbackSeed(size entities.HomeSize) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(size))
	return h.Sum64()
}
