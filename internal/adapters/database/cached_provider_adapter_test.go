package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/adapters/cache"
	"github.com/zatekoja/movequote/internal/domain/entities"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

type MockProviderRepository struct {
	mock.Mock
}

func (m *MockProviderRepository) GetByID(ctx context.Context, id string) (*entities.MovingProvider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MovingProvider), args.Error(1)
}

func (m *MockProviderRepository) ListActive(ctx context.Context) ([]entities.MovingProvider, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.MovingProvider), args.Error(1)
}

func TestCachedProviderAdapter_ListActiveReadsThrough(t *testing.T) {
	repo := new(MockProviderRepository)
	repo.On("ListActive", mock.Anything).Return([]entities.MovingProvider{
		{ID: "a", DisplayName: "A", PriceMultiplier: 1.0, Services: []string{"Packing"}},
		{ID: "b", DisplayName: "B", PriceMultiplier: 1.2},
	}, nil).Once()

	adapter := NewCachedProviderAdapter(repo, cache.NewMemoryAdapter(), nil)

	first, err := adapter.ListActive(context.Background())
	require.NoError(t, err)
	second, err := adapter.ListActive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Packing"}, second[0].Services)
	repo.AssertExpectations(t)
}

func TestCachedProviderAdapter_GetByIDCachesHits(t *testing.T) {
	repo := new(MockProviderRepository)
	repo.On("GetByID", mock.Anything, "a").Return(&entities.MovingProvider{ID: "a", Rating: 4.5}, nil).Once()

	adapter := NewCachedProviderAdapter(repo, cache.NewMemoryAdapter(), nil)

	for i := 0; i < 3; i++ {
		p, err := adapter.GetByID(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, 4.5, p.Rating)
	}
	repo.AssertExpectations(t)
}

func TestCachedProviderAdapter_ErrorsAreNotCached(t *testing.T) {
	repo := new(MockProviderRepository)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("provider missing not found")).Twice()
	repo.On("ListActive", mock.Anything).Return(nil, errors.New("db down")).Twice()

	adapter := NewCachedProviderAdapter(repo, cache.NewMemoryAdapter(), nil)

	for i := 0; i < 2; i++ {
		_, err := adapter.GetByID(context.Background(), "missing")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		_, err = adapter.ListActive(context.Background())
		assert.Error(t, err)
	}
	repo.AssertExpectations(t)
}
