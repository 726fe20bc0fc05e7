// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// Config validation errors.
var (
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
	ErrDatabaseURLRequired   = errors.New("DATABASE_URL is required for the postgres backend")
	ErrDynamoTableRequired   = errors.New("DYNAMODB_TABLE is required for the dynamodb backend")
	ErrUnknownIDStrategy     = errors.New("unknown id strategy")
	ErrInvalidRateLimit      = errors.New("rate limit RPS and burst must be positive")
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	AppPort   int    `env:"APP_PORT" envDefault:"8080"`
	AdminPort int    `env:"ADMIN_PORT" envDefault:"9090"` // 0 disables the admin listener

	// Storage
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"timeentries.db"`

	// DynamoDB. An empty endpoint uses the regional AWS endpoint.
	DynamoTable    string `env:"DYNAMODB_TABLE" envDefault:"TimeEntries"`
	DynamoEndpoint string `env:"DYNAMODB_ENDPOINT"`
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`

	// Cache (Redis). Empty disables the list cache and rate limiting.
	RedisURL     string        `env:"REDIS_URL"`
	ListCacheTTL time.Duration `env:"LIST_CACHE_TTL" envDefault:"30s"`

	// Entries
	IDStrategy         string `env:"ID_STRATEGY" envDefault:"timestamp"`
	EntryLookupEnabled bool   `env:"ENTRY_LOOKUP_ENABLED" envDefault:"false"`

	// Value served by GET /config
	APIEndpoint string `env:"API_ENDPOINT"`

	// Access-Control-Allow-Origin value
	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (per client IP, requires Redis)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CacheEnabled reports whether Redis is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// Validate checks combinations that env tags cannot express.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	case StorageDynamoDB:
		if c.DynamoTable == "" {
			return ErrDynamoTableRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageBackend, c.StorageBackend)
	}

	switch c.IDStrategy {
	case "timestamp", "ulid":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIDStrategy, c.IDStrategy)
	}

	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		return ErrInvalidRateLimit
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
