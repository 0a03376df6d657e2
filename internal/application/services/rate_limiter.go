package services

import (
	"sync"
	"time"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	"github.com/zatekoja/movequote/pkg/config"
)

type rateWindow struct {
	count     int
	startedAt time.Time
}

// ProviderRateLimiter keeps one request window per provider. It is shared by
// every concurrent aggregation, so all window reads and writes happen under mu.
type ProviderRateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*rateWindow
	limits       map[string]config.RateLimit
	defaultLimit config.RateLimit
	now          func() time.Time
}

var _ providers.RateLimiter = (*ProviderRateLimiter)(nil)

// NewProviderRateLimiter creates a limiter. Providers missing from limits use
// defaultLimit.
func NewProviderRateLimiter(limits map[string]config.RateLimit, defaultLimit config.RateLimit) *ProviderRateLimiter {
	copied := make(map[string]config.RateLimit, len(limits))
	for id, l := range limits {
		copied[id] = l
	}
	return &ProviderRateLimiter{
		windows:      make(map[string]*rateWindow),
		limits:       copied,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (l *ProviderRateLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// TryConsume implements providers.RateLimiter.
func (l *ProviderRateLimiter) TryConsume(providerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.limitFor(providerID)
	now := l.now()

	w, ok := l.windows[providerID]
	if !ok {
		w = &rateWindow{startedAt: now}
		l.windows[providerID] = w
	}

	if now.Sub(w.startedAt) > limit.WindowDuration() {
		w.count = 0
		w.startedAt = now
	}

	if w.count < limit.RequestLimit {
		w.count++
		return true
	}
	return false
}

// State implements providers.RateLimiter.
func (l *ProviderRateLimiter) State(providerID string) entities.RateLimitState {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.limitFor(providerID)
	state := entities.RateLimitState{
		ProviderID:     providerID,
		WindowLimit:    limit.RequestLimit,
		WindowDuration: limit.WindowDuration(),
	}
	if w, ok := l.windows[providerID]; ok {
		state.RequestCount = w.count
		state.WindowStartedAt = w.startedAt
	}
	return state
}

// Reset clears the provider's window.
func (l *ProviderRateLimiter) Reset(providerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, providerID)
}

func (l *ProviderRateLimiter) limitFor(providerID string) config.RateLimit {
	if limit, ok := l.limits[providerID]; ok {
		return limit
	}
	return l.defaultLimit
}
