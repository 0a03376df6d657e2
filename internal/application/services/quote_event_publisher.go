package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

const publishTimeout = time.Second

// PublishingQuoteAggregator announces every completed fan-out on the event
// bus, on the all-quotes channel and on the move category channel. Publish
// failures are logged and never fail the aggregation.
type PublishingQuoteAggregator struct {
	inner QuoteAggregator
	bus   providers.EventBus
	now   func() time.Time
}

// NewPublishingQuoteAggregator creates a publishing decorator
func NewPublishingQuoteAggregator(inner QuoteAggregator, bus providers.EventBus) *PublishingQuoteAggregator {
	return &PublishingQuoteAggregator{inner: inner, bus: bus, now: time.Now}
}

// Aggregate delegates and publishes the outcome of successful calls.
func (a *PublishingQuoteAggregator) Aggregate(ctx context.Context, req entities.MoveRequest) (*entities.AggregateResult, error) {
	result, err := a.inner.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	event := entities.NewQuoteEvent(uuid.NewString(), req, result, a.now())

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	logger := observability.LoggerFromContext(ctx)
	for _, channel := range []string{providers.EventChannelQuotes, providers.GetCategoryChannel(result.MoveCategory)} {
		if err := a.bus.Publish(pubCtx, channel, event); err != nil {
			logger.Warn().Err(err).Str("channel", channel).Msg("Failed to publish quote event")
		}
	}
	return result, nil
}
