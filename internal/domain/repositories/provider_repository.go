package repositories

import (
	"context"

	"github.com/zatekoja/movequote/internal/domain/entities"
)

// ProviderRepository defines the interface for the moving provider registry
type ProviderRepository interface {
	// GetByID retrieves a provider by ID, including disabled ones
	GetByID(ctx context.Context, id string) (*entities.MovingProvider, error)

	// ListActive retrieves the providers an aggregation should query, in registry order
	ListActive(ctx context.Context) ([]entities.MovingProvider, error)
}
