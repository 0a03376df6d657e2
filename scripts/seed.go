package main

import (
	"context"
	"os"
	"time"

	"github.com/zatekoja/movequote/internal/adapters/database"
	"github.com/zatekoja/movequote/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/movequote/internal/infrastructure/observability"
	"github.com/zatekoja/movequote/pkg/config"
)

// Seeds the moving_providers table from the engine configuration.
// Set RESET_DB=true to clear existing rows first.
func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(observability.LogOptions{
		ServiceName:    cfg.OTEL.ServiceName,
		Version:        cfg.OTEL.ServiceVersion,
		Environment:    cfg.Environment,
		Level:          cfg.LogLevel,
		ProviderSource: cfg.Engine.ProviderSource,
	})
	logger := observability.GetLogger()

	engineCfg, err := config.LoadEngineConfig(cfg.Engine.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Engine.ConfigPath).Msg("Failed to load engine config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	adapter := database.NewProviderAdapter(pgClient.DB(), nil)
	if err := adapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		logger.Warn().Msg("RESET_DB=true, truncating moving_providers")
		if _, err := pgClient.DB().ExecContext(ctx, "TRUNCATE moving_providers"); err != nil {
			logger.Fatal().Err(err).Msg("Failed to truncate providers")
		}
	}

	seeded := 0
	for i, p := range engineCfg.Providers {
		if err := adapter.Upsert(ctx, p, i); err != nil {
			logger.Error().Err(err).Str("provider_id", p.ID).Msg("Failed to seed provider")
			continue
		}
		seeded++
	}

	logger.Info().
		Int("seeded", seeded).
		Int("total", len(engineCfg.Providers)).
		Msg("Provider seeding complete")
	if seeded < len(engineCfg.Providers) {
		pgClient.Close()
		os.Exit(1)
	}
}
