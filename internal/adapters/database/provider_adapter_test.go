package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/movequote/internal/domain/entities"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

var providerRowColumns = []string{
	"id", "display_name", "price_multiplier", "rating", "review_count",
	"estimated_duration", "services", "special_offers", "insurance", "contact",
	"failure_rate",
}

func setupProviderAdapter(t *testing.T) (*ProviderAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProviderAdapter(db, nil), mock
}

func TestProviderAdapter_ListActive(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	rows := sqlmock.NewRows(providerRowColumns).
		AddRow("thrifty-haulers", "Thrifty Haulers", 0.85, 3.9, 412, "3-5 days",
			`{"Loading & Unloading","Basic Transport"}`, `{}`,
			[]byte(`{"basic":{"coverage":"$0.60 per lb","cost":0},"full":{"coverage":"Full value","cost":149}}`),
			[]byte(`{"phone":"1-800-555-0101","website":"https://thrifty.example.com"}`),
			0.05).
		AddRow("white-glove-movers", "White Glove Movers", 1.2, 4.9, 640, nil,
			`{"Piano Moving"}`, `{"Free crating"}`, nil, nil, 0.0)

	mock.ExpectQuery(`SELECT .+ FROM "moving_providers" WHERE .*"is_active" IS TRUE.* ORDER BY "sort_order" ASC, "id" ASC`).
		WillReturnRows(rows)

	list, err := adapter.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "thrifty-haulers", list[0].ID)
	assert.Equal(t, 0.85, list[0].PriceMultiplier)
	assert.Equal(t, []string{"Loading & Unloading", "Basic Transport"}, list[0].Services)
	assert.Equal(t, 149, list[0].Insurance.Full.Cost)
	assert.Equal(t, "1-800-555-0101", list[0].Contact.Phone)

	assert.Equal(t, "", list[1].EstimatedDuration)
	assert.Equal(t, []string{"Free crating"}, list[1].SpecialOffers)
	assert.Zero(t, list[1].Insurance.Full.Cost)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderAdapter_GetByID(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	rows := sqlmock.NewRows(providerRowColumns).
		AddRow("national-van-lines", "National Van Lines", 1.1, 4.4, 2875, "2-3 days",
			`{Packing,Storage}`, `{}`, nil, nil, 0.05)
	mock.ExpectQuery(`SELECT .+ FROM "moving_providers" WHERE .*"id" = 'national-van-lines'`).
		WillReturnRows(rows)

	provider, err := adapter.GetByID(context.Background(), "national-van-lines")
	require.NoError(t, err)
	assert.Equal(t, "National Van Lines", provider.DisplayName)
	assert.Equal(t, []string{"Packing", "Storage"}, provider.Services)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderAdapter_GetByIDNotFound(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "moving_providers"`).
		WillReturnRows(sqlmock.NewRows(providerRowColumns))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestProviderAdapter_QueryFailureIsInternal(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "moving_providers"`).
		WillReturnError(errors.New("connection reset"))

	_, err := adapter.ListActive(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestProviderAdapter_CorruptJSONColumn(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	rows := sqlmock.NewRows(providerRowColumns).
		AddRow("broken", "Broken", 1.0, 4.0, 1, "1 day", `{}`, `{}`, []byte(`{bad`), nil, 0.0)
	mock.ExpectQuery(`SELECT .+ FROM "moving_providers"`).WillReturnRows(rows)

	_, err := adapter.ListActive(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestProviderAdapter_EnsureSchema(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS moving_providers`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderAdapter_Upsert(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	mock.ExpectExec(`INSERT INTO "moving_providers" .+ ON CONFLICT \(id\) DO UPDATE SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), entities.MovingProvider{
		ID:              "solo-movers",
		DisplayName:     "Solo Movers",
		PriceMultiplier: 1.0,
		Rating:          4.1,
		Services:        []string{"Transport"},
	}, 3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProviderAdapter_UpsertFailure(t *testing.T) {
	adapter, mock := setupProviderAdapter(t)

	mock.ExpectExec(`INSERT INTO "moving_providers"`).
		WillReturnError(errors.New("permission denied"))

	err := adapter.Upsert(context.Background(), entities.MovingProvider{ID: "solo-movers", DisplayName: "Solo", PriceMultiplier: 1}, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "solo-movers")
}
