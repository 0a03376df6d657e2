package movers

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/pkg/config"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// ErrSimulatedFailure is wrapped by the UNAVAILABLE error of a provider call
// that failed its failure-rate draw.
var ErrSimulatedFailure = errors.New("simulated provider failure")

// GatewayOptions configures the simulated provider behaviour.
type GatewayOptions struct {
	LatencyMin  time.Duration
	LatencyMax  time.Duration
	PriceJitter float64

	// Rand drives latency, failure and jitter draws. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
	Now  func() time.Time
}

// SimulatedGateway prices move requests for every provider in the registry
// without network access. Any registry entry is priced by the same rules, so
// adding a provider is a data change.
type SimulatedGateway struct {
	registry repositories.ProviderRepository
	limiter  providers.RateLimiter
	distance providers.DistanceProvider
	calc     *Calculator
	opts     GatewayOptions

	mu  sync.Mutex
	rng *rand.Rand
}

var _ providers.QuoteGateway = (*SimulatedGateway)(nil)

// NewSimulatedGateway creates a new simulated gateway
func NewSimulatedGateway(
	cfg *config.EngineConfig,
	registry repositories.ProviderRepository,
	limiter providers.RateLimiter,
	distance providers.DistanceProvider,
	opts GatewayOptions,
) *SimulatedGateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &SimulatedGateway{
		registry: registry,
		limiter:  limiter,
		distance: distance,
		calc:     NewCalculator(cfg),
		opts:     opts,
		rng:      rng,
	}
}

// Quote implements providers.QuoteGateway
func (g *SimulatedGateway) Quote(ctx context.Context, providerID string, req entities.MoveRequest) (*entities.Quote, error) {
	provider, err := g.registry.GetByID(ctx, providerID)
	if err != nil {
		// An unknown provider stays NOT_FOUND so the aggregator does not retry it.
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, err
		}
		return nil, apperrors.NewUnavailableError(providerID, err)
	}

	if !g.limiter.TryConsume(providerID) {
		return nil, apperrors.NewRateLimitError(providerID)
	}

	latency, failed, jitter := g.draw(provider.FailureRate)
	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperrors.NewUnavailableError(providerID, ctx.Err())
		case <-timer.C:
		}
	}
	if failed {
		return nil, apperrors.NewUnavailableError(providerID, ErrSimulatedFailure)
	}

	miles, err := g.distance.DistanceMiles(ctx, req.OriginZip, req.DestinationZip)
	if err != nil {
		return nil, err
	}

	breakdown := g.calc.Breakdown(req, miles)
	price := FinalPrice(breakdown.Subtotal, provider.PriceMultiplier)
	if g.opts.PriceJitter > 0 {
		price = int(math.Round(float64(price) * (1 + jitter*g.opts.PriceJitter)))
	}

	now := g.opts.Now()
	return &entities.Quote{
		ID:                uuid.NewString(),
		ProviderID:        provider.ID,
		CompanyName:       provider.DisplayName,
		TotalPrice:        price,
		Rating:            provider.Rating,
		ReviewCount:       provider.ReviewCount,
		ServicesOffered:   append([]string(nil), provider.Services...),
		EstimatedDuration: provider.EstimatedDuration,
		Availability:      entities.AvailabilityForDays(req.DaysUntilMove(now)),
		Insurance:         provider.Insurance,
		SpecialOffers:     append([]string(nil), provider.SpecialOffers...),
		Contact:           provider.Contact,
		RetrievedAt:       now,
	}, nil
}

// draw takes the latency, failure and jitter samples for one call. jitter is
// in [-1, 1) and is scaled by PriceJitter.
func (g *SimulatedGateway) draw(failureRate float64) (time.Duration, bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	latency := g.opts.LatencyMin
	if spread := g.opts.LatencyMax - g.opts.LatencyMin; spread > 0 {
		latency += time.Duration(g.rng.Int64N(int64(spread)))
	}
	failed := failureRate > 0 && g.rng.Float64() < failureRate
	jitter := g.rng.Float64()*2 - 1
	return latency, failed, jitter
}
