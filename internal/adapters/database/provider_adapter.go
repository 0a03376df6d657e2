package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/movequote/internal/domain/entities"
	"github.com/zatekoja/movequote/internal/domain/repositories"
	"github.com/zatekoja/movequote/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/movequote/pkg/errors"
)

const providersTable = "moving_providers"

var providerColumns = []interface{}{
	"id", "display_name", "price_multiplier", "rating", "review_count",
	"estimated_duration", "services", "special_offers", "insurance", "contact",
	"failure_rate",
}

// ProviderAdapter implements ProviderRepository over the moving_providers
// table. Only rows with is_active set are visible.
type ProviderAdapter struct {
	db      *sql.DB
	builder *goqu.Database
	metrics *observability.Metrics
}

var _ repositories.ProviderRepository = (*ProviderAdapter)(nil)

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(db *sql.DB, metrics *observability.Metrics) *ProviderAdapter {
	return &ProviderAdapter{
		db:      db,
		builder: goqu.New("postgres", db),
		metrics: metrics,
	}
}

// NewProviderAdapterFromClient creates a provider adapter on a connected client
func NewProviderAdapterFromClient(client *postgres.Client, metrics *observability.Metrics) repositories.ProviderRepository {
	return NewProviderAdapter(client.DB(), metrics)
}

// GetByID retrieves an active provider by ID
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.MovingProvider, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "providers.get", time.Since(start)) }()

	query, args, err := a.builder.Select(providerColumns...).
		From(providersTable).
		Where(goqu.Ex{"id": id, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.db.QueryRowContext(ctx, query, args...)
	provider, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get provider", err)
	}
	return provider, nil
}

// ListActive returns active providers in registry order
func (a *ProviderAdapter) ListActive(ctx context.Context) ([]entities.MovingProvider, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "providers.list", time.Since(start)) }()

	query, args, err := a.builder.Select(providerColumns...).
		From(providersTable).
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.C("sort_order").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list providers", err)
	}
	defer rows.Close()

	var list []entities.MovingProvider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		list = append(list, *provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate providers", err)
	}
	return list, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (*entities.MovingProvider, error) {
	p := &entities.MovingProvider{}
	var duration sql.NullString
	var insurance, contact []byte

	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&p.PriceMultiplier,
		&p.Rating,
		&p.ReviewCount,
		&duration,
		pq.Array(&p.Services),
		pq.Array(&p.SpecialOffers),
		&insurance,
		&contact,
		&p.FailureRate,
	)
	if err != nil {
		return nil, err
	}

	p.EstimatedDuration = duration.String
	if len(insurance) > 0 {
		if err := json.Unmarshal(insurance, &p.Insurance); err != nil {
			return nil, fmt.Errorf("provider %s insurance: %w", p.ID, err)
		}
	}
	if len(contact) > 0 {
		if err := json.Unmarshal(contact, &p.Contact); err != nil {
			return nil, fmt.Errorf("provider %s contact: %w", p.ID, err)
		}
	}
	return p, nil
}

// providersSchema creates the registry table read by ProviderAdapter.
const providersSchema = `CREATE TABLE IF NOT EXISTS moving_providers (
	id                 TEXT PRIMARY KEY,
	display_name       TEXT NOT NULL,
	price_multiplier   DOUBLE PRECISION NOT NULL CHECK (price_multiplier > 0),
	rating             DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count       INTEGER NOT NULL DEFAULT 0,
	estimated_duration TEXT,
	services           TEXT[] NOT NULL DEFAULT '{}',
	special_offers     TEXT[] NOT NULL DEFAULT '{}',
	insurance          JSONB,
	contact            JSONB,
	failure_rate       DOUBLE PRECISION NOT NULL DEFAULT 0,
	sort_order         INTEGER NOT NULL DEFAULT 0,
	is_active          BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the providers table when missing
func (a *ProviderAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, providersSchema); err != nil {
		return apperrors.NewInternalError("failed to create providers table", err)
	}
	return nil
}

// Upsert inserts a provider or replaces the row with the same id
func (a *ProviderAdapter) Upsert(ctx context.Context, p entities.MovingProvider, sortOrder int) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "providers.upsert", time.Since(start)) }()

	insurance, err := json.Marshal(p.Insurance)
	if err != nil {
		return apperrors.NewInternalError("failed to encode insurance", err)
	}
	contact, err := json.Marshal(p.Contact)
	if err != nil {
		return apperrors.NewInternalError("failed to encode contact", err)
	}

	record := goqu.Record{
		"id":                 p.ID,
		"display_name":       p.DisplayName,
		"price_multiplier":   p.PriceMultiplier,
		"rating":             p.Rating,
		"review_count":       p.ReviewCount,
		"estimated_duration": sql.NullString{String: p.EstimatedDuration, Valid: p.EstimatedDuration != ""},
		"services":           pq.Array(p.Services),
		"special_offers":     pq.Array(p.SpecialOffers),
		"insurance":          string(insurance),
		"contact":            string(contact),
		"failure_rate":       p.FailureRate,
		"sort_order":         sortOrder,
		"is_active":          !p.Disabled,
		"updated_at":         goqu.L("NOW()"),
	}

	update := goqu.Record{}
	for column := range record {
		if column != "id" {
			update[column] = goqu.L("EXCLUDED." + column)
		}
	}

	query, args, err := a.builder.Insert(providersTable).
		Prepared(true).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to upsert provider %s", p.ID), err)
	}
	return nil
}
