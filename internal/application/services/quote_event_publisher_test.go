package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/adapters/events"
	"github.com/zatekoja/movequote/internal/application/services"
	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

type stubAggregator struct {
	result *entities.AggregateResult
	err    error
}

func (s stubAggregator) Aggregate(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error) {
	return s.result, s.err
}

func TestPublishingQuoteAggregator_PublishesOnBothChannels(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, providers.EventChannelQuotes)
	require.NoError(t, err)
	longDistance, err := bus.Subscribe(ctx, providers.GetCategoryChannel(entities.MoveCategoryLongDistance))
	require.NoError(t, err)

	result := &entities.AggregateResult{
		Quotes:              []entities.Quote{{ProviderID: "a", TotalPrice: 1530}, {ProviderID: "b", TotalPrice: 2070}},
		ProvidersQueried:    3,
		SuccessfulResponses: 2,
		Failures:            []entities.ProviderFailure{{ProviderID: "c", Reason: entities.FailureRateLimited}},
		MoveCategory:        entities.MoveCategoryLongDistance,
	}
	agg := services.NewPublishingQuoteAggregator(stubAggregator{result: result}, bus)

	got, err := agg.Aggregate(ctx, entities.MoveRequest{OriginZip: " 10001 ", DestinationZip: "30301", HomeSize: "2BR"})
	require.NoError(t, err)
	assert.Same(t, result, got)

	for _, ch := range []<-chan *entities.QuoteEvent{all, longDistance} {
		select {
		case event := <-ch:
			assert.Equal(t, entities.QuoteEventAggregated, event.EventType)
			assert.Equal(t, "10001", event.OriginZip)
			assert.Equal(t, entities.HomeSizeTwoBed, event.HomeSize)
			assert.Equal(t, 1530, event.LowestPrice)
			assert.Equal(t, 2, event.SuccessfulResponses)
			assert.Len(t, event.Failures, 1)
			assert.NotEmpty(t, event.ID)
		case <-time.After(time.Second):
			t.Fatal("event not published")
		}
	}
}

func TestPublishingQuoteAggregator_FallbackEventType(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, providers.EventChannelQuotes)
	require.NoError(t, err)

	agg := services.NewPublishingQuoteAggregator(stubAggregator{result: &entities.AggregateResult{
		Quotes:       []entities.Quote{{TotalPrice: 1700, Fallback: true}},
		UsedFallback: true,
		MoveCategory: entities.MoveCategoryLocal,
	}}, bus)

	_, err = agg.Aggregate(ctx, entities.MoveRequest{})
	require.NoError(t, err)

	event := <-all
	assert.Equal(t, entities.QuoteEventFallback, event.EventType)
}

func TestPublishingQuoteAggregator_ErrorsAreNotPublished(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, providers.EventChannelQuotes)
	require.NoError(t, err)

	agg := services.NewPublishingQuoteAggregator(stubAggregator{err: apperrors.NewValidationError("bad zip")}, bus)
	_, err = agg.Aggregate(ctx, entities.MoveRequest{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, all)
}

func TestPublishingQuoteAggregator_ClosedBusDoesNotFailCall(t *testing.T) {
	bus := events.NewMemoryEventBus()
	require.NoError(t, bus.Close())

	agg := services.NewPublishingQuoteAggregator(stubAggregator{result: &entities.AggregateResult{
		Quotes: []entities.Quote{{TotalPrice: 900}},
	}}, bus)

	result, err := agg.Aggregate(context.Background(), entities.MoveRequest{})
	require.NoError(t, err)
	assert.Len(t, result.Quotes, 1)
}
