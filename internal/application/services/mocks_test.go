package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/providers"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

// Mocks

type MockQuoteGateway struct {
	mock.Mock
}

func (m *MockQuoteGateway) Quote(ctx context.Context, providerID string, req entities.MoveRequest) (*entities.Quote, error) {
	args := m.Called(ctx, providerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Quote), args.Error(1)
}

type gatewayFunc func(ctx context.Context, providerID string, req entities.MoveRequest) (*entities.Quote, error)

func (f gatewayFunc) Quote(ctx context.Context, providerID string, req entities.MoveRequest) (*entities.Quote, error) {
	return f(ctx, providerID, req)
}

type fakeRegistry struct {
	providers []entities.MovingProvider
	err       error
}

func (r *fakeRegistry) GetByID(ctx context.Context, id string) (*entities.MovingProvider, error) {
	for _, p := range r.providers {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, apperrors.NewNotFoundError("provider " + id + " not found")
}

func (r *fakeRegistry) ListActive(ctx context.Context) ([]entities.MovingProvider, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.providers, nil
}

func registryOf(ids ...string) *fakeRegistry {
	r := &fakeRegistry{}
	for _, id := range ids {
		r.providers = append(r.providers, entities.MovingProvider{ID: id, DisplayName: id, PriceMultiplier: 1})
	}
	return r
}

type fakeDistance struct {
	miles float64
	err   error
}

func (f fakeDistance) DistanceMiles(ctx context.Context, originZip, destinationZip string) (float64, error) {
	return f.miles, f.err
}

func (f fakeDistance) Locate(ctx context.Context, zip string) (*providers.Coordinates, error) {
	return &providers.Coordinates{}, nil
}

func quoteOf(providerID string, price int, rating float64) *entities.Quote {
	return &entities.Quote{
		ID:                "q-" + providerID,
		ProviderID:        providerID,
		CompanyName:       providerID,
		TotalPrice:        price,
		Rating:            rating,
		EstimatedDuration: "2-3 days",
		Availability:      entities.AvailabilityGood,
	}
}
