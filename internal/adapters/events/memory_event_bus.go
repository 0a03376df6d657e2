package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
)

// MemoryEventBus fans events out inside one process. It backs the event
// stream when Redis is not configured.
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.QuoteEvent]struct{}
	closed      bool
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subscribers: make(map[string]map[chan *entities.QuoteEvent]struct{})}
}

// Publish delivers to current subscribers without blocking; full subscriber
// buffers drop the event.
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.QuoteEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber that is removed when ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QuoteEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("event bus closed")
	}

	eventChan := make(chan *entities.QuoteEvent, subscriberBuffer)
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.QuoteEvent]struct{})
	}
	b.subscribers[channel][eventChan] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(channel, eventChan)
	}()

	return eventChan, nil
}

// SubscriberCount reports subscribers on a channel
func (b *MemoryEventBus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

func (b *MemoryEventBus) remove(channel string, eventChan chan *entities.QuoteEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subscribers, ok := b.subscribers[channel]
	if !ok {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe closes every subscriber of a channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes all subscribers; later calls to Publish and Subscribe fail
func (b *MemoryEventBus) Close() error {
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
	return nil
}
