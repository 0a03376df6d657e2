package movers

import (
	"context"
	"fmt"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/pkg/config"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// StaticRegistry serves the provider registry from the engine config.
type StaticRegistry struct {
	providers []entities.MovingProvider
	byID      map[string]entities.MovingProvider
}

// NewStaticRegistry creates a registry over the configured providers
func NewStaticRegistry(cfg *config.EngineConfig) repositories.ProviderRepository {
	return NewStaticRegistryFromList(cfg.Providers)
}

// NewStaticRegistryFromList creates a registry over an explicit provider list
func NewStaticRegistryFromList(list []entities.MovingProvider) *StaticRegistry {
	r := &StaticRegistry{
		providers: append([]entities.MovingProvider(nil), list...),
		byID:      make(map[string]entities.MovingProvider, len(list)),
	}
	for _, p := range list {
		r.byID[p.ID] = p
	}
	return r
}

// GetByID retrieves a provider by ID
func (r *StaticRegistry) GetByID(ctx context.Context, id string) (*entities.MovingProvider, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider %s not found", id))
	}
	return &p, nil
}

// ListActive retrieves providers that are not disabled
func (r *StaticRegistry) ListActive(ctx context.Context) ([]entities.MovingProvider, error) {
	active := make([]entities.MovingProvider, 0, len(r.providers))
	for _, p := range r.providers {
		if !p.Disabled {
			active = append(active, p)
		}
	}
	return active, nil
}
