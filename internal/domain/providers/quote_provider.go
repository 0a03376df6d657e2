package providers

import (
	"context"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// QuoteGateway prices a move request for one provider.
type QuoteGateway interface {
	// Quote returns the provider's quote. Errors carry the RATE_LIMITED or
	// UNAVAILABLE AppError types.
	Quote(ctx context.Context, providerID string, req entities.MoveRequest) (*entities.Quote, error)
}

// RateLimiter guards provider calls with per-provider request windows.
type RateLimiter interface {
	// TryConsume takes one request from the provider's current window and
	// reports whether the call may proceed.
	TryConsume(providerID string) bool

	// State returns a snapshot of the provider's window.
	State(providerID string) entities.RateLimitState
}
