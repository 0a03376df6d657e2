package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	redisclient "github.com/zatekoja/movequote/internal/infrastructure/clients/redis"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
)

// ChannelPrefix namespaces pub/sub channels the same way cache keys are.
const ChannelPrefix = "movequote:"

const subscriberBuffer = 100

var errBusClosed = errors.New("event bus closed")

// RedisEventBus implements EventBus over Redis Pub/Sub so every API replica
// sees every aggregation. All channels share one PubSub connection; Redis
// subscriptions are added on the first local subscriber of a channel and
// dropped with the last.
type RedisEventBus struct {
	client *redisclient.Client

	mu          sync.RWMutex
	pubsub      *redis.PubSub
	subscribers map[string]map[chan *entities.QuoteEvent]struct{}
	closed      bool
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return &RedisEventBus{
		client:      client,
		subscribers: make(map[string]map[chan *entities.QuoteEvent]struct{}),
	}
}

// Publish encodes the event as JSON and publishes it on the prefixed channel.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.QuoteEvent) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return errBusClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.client.Client().Publish(ctx, ChannelPrefix+channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Int64("receivers", receivers).
		Msg("Published quote event")
	return nil
}

// Subscribe returns a buffered stream of events on channel. The stream is
// closed when ctx ends, on Unsubscribe, or on Close.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QuoteEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errBusClosed
	}

	if b.subscribers[channel] == nil {
		if err := b.subscribeRemote(ctx, channel); err != nil {
			return nil, err
		}
		b.subscribers[channel] = make(map[chan *entities.QuoteEvent]struct{})
	}

	eventChan := make(chan *entities.QuoteEvent, subscriberBuffer)
	b.subscribers[channel][eventChan] = struct{}{}

	observability.GetLogger().Debug().
		Str("channel", channel).
		Int("subscribers", len(b.subscribers[channel])).
		Msg("Subscribed to quote events")

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// subscribeRemote adds channel to the shared PubSub, creating it and its
// dispatch loop on first use. Callers hold b.mu.
func (b *RedisEventBus) subscribeRemote(ctx context.Context, channel string) error {
	if b.pubsub == nil {
		b.pubsub = b.client.Client().Subscribe(context.WithoutCancel(ctx), ChannelPrefix+channel)
		go b.dispatch(b.pubsub)
		return nil
	}
	if err := b.pubsub.Subscribe(ctx, ChannelPrefix+channel); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return nil
}

// dispatch fans Redis messages out to local subscribers until the PubSub is
// closed.
func (b *RedisEventBus) dispatch(pubsub *redis.PubSub) {
	logger := observability.GetLogger()

	for msg := range pubsub.Channel(redis.WithChannelSize(subscriberBuffer)) {
		channel := strings.TrimPrefix(msg.Channel, ChannelPrefix)
		event, err := decodeEvent(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed quote event")
			continue
		}

		b.mu.RLock()
		for subscriber := range b.subscribers[channel] {
			select {
			case subscriber <- event:
			default:
				logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
			}
		}
		b.mu.RUnlock()
	}
}

func decodeEvent(payload string) (*entities.QuoteEvent, error) {
	var event entities.QuoteEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.ID == "" {
		return nil, errors.New("event has no id")
	}
	return &event, nil
}

func (b *RedisEventBus) removeSubscriber(channel string, eventChan chan *entities.QuoteEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		b.dropChannel(channel)
	}
}

// dropChannel forgets channel and leaves the Redis subscription. Callers hold
// b.mu.
func (b *RedisEventBus) dropChannel(channel string) {
	delete(b.subscribers, channel)
	if b.pubsub == nil {
		return
	}
	if err := b.pubsub.Unsubscribe(context.Background(), ChannelPrefix+channel); err != nil {
		observability.GetLogger().Warn().Err(err).Str("channel", channel).Msg("Failed to unsubscribe channel")
	}
}

// Unsubscribe closes every local stream on channel.
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.subscribers[channel]
	if !ok {
		return nil
	}
	for subscriber := range subscribers {
		close(subscriber)
	}
	b.dropChannel(channel)
	return nil
}

// Close ends all streams and the shared PubSub connection.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}

	if b.pubsub == nil {
		return nil
	}
	err := b.pubsub.Close()
	b.pubsub = nil
	if err != nil {
		return fmt.Errorf("failed to close event bus: %w", err)
	}
	return nil
}
