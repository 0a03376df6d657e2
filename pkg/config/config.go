package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zatekoja/movequote/pkg/secrets"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	OTEL        OTELConfig
	Engine      EngineSettings
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Provider registry sources
const (
	ProviderSourceFile     = "file"
	ProviderSourcePostgres = "postgres"
)

// EngineSettings tunes the quote engine runtime. The pricing and scoring
// tables themselves live in the JSON file at ConfigPath.
type EngineSettings struct {
	ConfigPath       string
	ProviderSource   string
	RequestTimeout   time.Duration
	MaxConcurrency   int
	LatencyMin       time.Duration
	LatencyMax       time.Duration
	PriceJitter      float64
	RetryAttempts    int
	QuoteCacheTTL    time.Duration
	SessionTTL       time.Duration
	DefaultRateLimit int
	DefaultWindow    time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory, when present, is read first; real environment values win.
// When VAULT_ENABLED=true the configured Vault secret is exported into the
// environment before any value is read.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	vault := secrets.ConfigFromEnv()
	vaultCtx, cancel := context.WithTimeout(context.Background(), vault.Timeout*time.Duration(max(vault.Attempts, 1))+time.Second)
	defer cancel()
	if _, err := secrets.Apply(vaultCtx, vault); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "movequote"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "movequote"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Engine: EngineSettings{
			ConfigPath:       getEnv("ENGINE_CONFIG_PATH", ""),
			ProviderSource:   getEnv("PROVIDER_SOURCE", ProviderSourceFile),
			RequestTimeout:   getEnvAsDuration("QUOTE_REQUEST_TIMEOUT", 3*time.Second),
			MaxConcurrency:   getEnvAsInt("QUOTE_MAX_CONCURRENCY", 8),
			LatencyMin:       getEnvAsDuration("PROVIDER_LATENCY_MIN", 200*time.Millisecond),
			LatencyMax:       getEnvAsDuration("PROVIDER_LATENCY_MAX", 800*time.Millisecond),
			PriceJitter:      getEnvAsFloat("PROVIDER_PRICE_JITTER", 0),
			RetryAttempts:    getEnvAsInt("PROVIDER_RETRY_ATTEMPTS", 2),
			QuoteCacheTTL:    getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
			SessionTTL:       getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			DefaultRateLimit: getEnvAsInt("PROVIDER_RATE_LIMIT", 10),
			DefaultWindow:    getEnvAsDuration("PROVIDER_RATE_WINDOW", time.Minute),
		},
	}

	if cfg.Engine.ProviderSource != ProviderSourceFile && cfg.Engine.ProviderSource != ProviderSourcePostgres {
		return nil, fmt.Errorf("unsupported PROVIDER_SOURCE %q", cfg.Engine.ProviderSource)
	}
	if cfg.Engine.LatencyMax < cfg.Engine.LatencyMin {
		return nil, fmt.Errorf("PROVIDER_LATENCY_MAX must not be below PROVIDER_LATENCY_MIN")
	}
	if cfg.Engine.PriceJitter < 0 || cfg.Engine.PriceJitter >= 1 {
		return nil, fmt.Errorf("PROVIDER_PRICE_JITTER must be in [0,1)")
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
