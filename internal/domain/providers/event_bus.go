package providers

import (
	"context"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to quote events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.QuoteEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QuoteEvent, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelQuotes carries every aggregation event
	EventChannelQuotes = "quotes:events"

	// EventChannelCategoryPrefix is the prefix for per-category channels
	EventChannelCategoryPrefix = "quotes:category:"
)

// GetCategoryChannel returns the channel name for one move category
func GetCategoryChannel(category entities.MoveCategory) string {
	return EventChannelCategoryPrefix + string(category)
}
