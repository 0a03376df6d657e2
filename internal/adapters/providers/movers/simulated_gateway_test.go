package movers

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/pkg/config"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

type fixedDistance struct {
	miles float64
}

func (f fixedDistance) DistanceMiles(ctx context.Context, originZip, destinationZip string) (float64, error) {
	return f.miles, nil
}

func (f fixedDistance) Locate(ctx context.Context, zip string) (*providers.Coordinates, error) {
	return &providers.Coordinates{}, nil
}

type stubLimiter struct {
	allow bool
	calls int
}

func (s *stubLimiter) TryConsume(providerID string) bool {
	s.calls++
	return s.allow
}

func (s *stubLimiter) State(providerID string) entities.RateLimitState {
	return entities.RateLimitState{ProviderID: providerID, RequestCount: s.calls}
}

var gatewayNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestGateway(t *testing.T, limiter providers.RateLimiter, opts GatewayOptions) *SimulatedGateway {
	t.Helper()
	cfg := config.DefaultEngineConfig()
	for i := range cfg.Providers {
		cfg.Providers[i].FailureRate = 0
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(7, 11))
	}
	opts.Now = func() time.Time { return gatewayNow }
	return NewSimulatedGateway(cfg, NewStaticRegistry(cfg), limiter, fixedDistance{miles: 2451.3}, opts)
}

func exampleRequest() entities.MoveRequest {
	return entities.MoveRequest{
		OriginZip:         "10001",
		DestinationZip:    "90210",
		MoveDate:          gatewayNow.AddDate(0, 0, 30),
		HomeSize:          entities.HomeSizeTwoBed,
		RequestedServices: []string{"packing"},
	}
}

func TestSimulatedGateway_ExampleOrderedByMultiplier(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: true}, GatewayOptions{})
	cfg := config.DefaultEngineConfig()
	req := exampleRequest()

	subtotal := NewCalculator(cfg).Breakdown(req, 2451.3).Subtotal
	assert.InDelta(t, (1800+2451.3*1.2)*1.3, subtotal, 1e-9)

	type priced struct {
		multiplier float64
		price      int
	}
	var results []priced
	for _, p := range cfg.Providers {
		quote, err := gateway.Quote(context.Background(), p.ID, req)
		require.NoError(t, err)
		assert.Equal(t, FinalPrice(subtotal, p.PriceMultiplier), quote.TotalPrice, p.ID)
		assert.Equal(t, entities.AvailabilityExcellent, quote.Availability)
		assert.Equal(t, p.DisplayName, quote.CompanyName)
		results = append(results, priced{multiplier: p.PriceMultiplier, price: quote.TotalPrice})
	}

	require.Len(t, results, 5)
	sort.Slice(results, func(i, j int) bool { return results[i].multiplier < results[j].multiplier })
	for i := 1; i < len(results); i++ {
		assert.Greater(t, results[i].price, results[i-1].price)
	}
}

func TestSimulatedGateway_IdempotentWithoutJitter(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: true}, GatewayOptions{
		LatencyMin: time.Millisecond,
		LatencyMax: 3 * time.Millisecond,
	})
	req := exampleRequest()

	first, err := gateway.Quote(context.Background(), "premier-moving-group", req)
	require.NoError(t, err)
	second, err := gateway.Quote(context.Background(), "premier-moving-group", req)
	require.NoError(t, err)

	assert.Equal(t, first.TotalPrice, second.TotalPrice)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSimulatedGateway_JitterIsBounded(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: true}, GatewayOptions{PriceJitter: 0.05})
	req := exampleRequest()
	cfg := config.DefaultEngineConfig()
	base := FinalPrice(NewCalculator(cfg).Breakdown(req, 2451.3).Subtotal, 0.90)

	for i := 0; i < 20; i++ {
		quote, err := gateway.Quote(context.Background(), "reliable-relocations", req)
		require.NoError(t, err)
		assert.InDelta(t, base, quote.TotalPrice, float64(base)*0.05+1)
	}
}

func TestSimulatedGateway_RateLimited(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: false}, GatewayOptions{})

	_, err := gateway.Quote(context.Background(), "thrifty-haulers", exampleRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
}

func TestSimulatedGateway_UnknownProvider(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	gateway := newTestGateway(t, limiter, GatewayOptions{})

	_, err := gateway.Quote(context.Background(), "ghost-movers", exampleRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	assert.Zero(t, limiter.calls, "unknown provider must not consume a token")
}

func TestSimulatedGateway_HonoursDeadline(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: true}, GatewayOptions{
		LatencyMin: time.Second,
		LatencyMax: time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gateway.Quote(ctx, "national-van-lines", exampleRequest())
	require.Error(t, err)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSimulatedGateway_FailureRate(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	for i := range cfg.Providers {
		cfg.Providers[i].FailureRate = 1
	}
	gateway := NewSimulatedGateway(cfg, NewStaticRegistry(cfg), &stubLimiter{allow: true}, fixedDistance{miles: 20}, GatewayOptions{
		Rand: rand.New(rand.NewPCG(1, 2)),
	})

	_, err := gateway.Quote(context.Background(), "white-glove-movers", exampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSimulatedFailure)
}

func TestSimulatedGateway_AvailabilityFromMoveDate(t *testing.T) {
	gateway := newTestGateway(t, &stubLimiter{allow: true}, GatewayOptions{})
	req := exampleRequest()
	req.MoveDate = gatewayNow.AddDate(0, 0, 3)

	quote, err := gateway.Quote(context.Background(), "thrifty-haulers", req)
	require.NoError(t, err)
	assert.Equal(t, entities.AvailabilityLimited, quote.Availability)
}

func TestStaticRegistry_SkipsDisabled(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.Providers[0].Disabled = true
	registry := NewStaticRegistry(cfg)

	active, err := registry.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 4)

	p, err := registry.GetByID(context.Background(), cfg.Providers[0].ID)
	require.NoError(t, err)
	assert.True(t, p.Disabled)
}
