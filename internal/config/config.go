package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/alicecomoura/hook-shopping-cart/internal/storage"
	pkgconfig "github.com/alicecomoura/hook-shopping-cart/pkg/config"
	"github.com/alicecomoura/hook-shopping-cart/pkg/database"
	"github.com/alicecomoura/hook-shopping-cart/pkg/httpclient"
	"github.com/alicecomoura/hook-shopping-cart/pkg/tracing"
)

// ServiceName identifies this process in logs, metrics and traces.
const ServiceName = "cart-service"

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Catalog API (stock and products)
	CatalogURL        string `env:"CATALOG_API_URL" envDefault:"http://localhost:3333"`
	CatalogTimeoutSec int    `env:"CATALOG_TIMEOUT_SECONDS" envDefault:"10"`
	CatalogMaxRetries int    `env:"CATALOG_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker around the catalog API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBIntervalSec  int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeoutSec   int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Persisted snapshot
	StorageKey     string `env:"CART_STORAGE_KEY" envDefault:"@RocketShoes:cart"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Snapshot TTL in hours, 0 keeps it forever
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"storefront"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Rate limiting on cart mutations
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CatalogURL == "" {
		return fmt.Errorf("CATALOG_API_URL is required")
	}
	if c.CatalogTimeoutSec <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_SECONDS must be positive, got %d", c.CatalogTimeoutSec)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative, got %d", c.CatalogMaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %v", c.CBFailureRatio)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be blank")
	}

	switch c.StorageBackend {
	case storage.BackendMemory, storage.BackendPostgres:
	case storage.BackendRedis:
		if _, _, err := net.SplitHostPort(c.RedisAddr); err != nil {
			return fmt.Errorf("invalid REDIS_ADDR %q: %w", c.RedisAddr, err)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want %s, %s or %s)",
			c.StorageBackend, storage.BackendMemory, storage.BackendRedis, storage.BackendPostgres)
	}

	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// SnapshotTTL returns the Redis expiry for the cart snapshot.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// HTTPClient returns the catalog client settings.
func (c *Config) HTTPClient() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = time.Duration(c.CatalogTimeoutSec) * time.Second
	cfg.MaxRetries = c.CatalogMaxRetries
	return cfg
}

// CircuitBreaker returns the catalog breaker settings.
func (c *Config) CircuitBreaker() httpclient.BreakerConfig {
	cfg := httpclient.DefaultBreakerConfig("catalog")
	cfg.MaxRequests = c.CBMaxRequests
	cfg.Interval = time.Duration(c.CBIntervalSec) * time.Second
	cfg.Timeout = time.Duration(c.CBTimeoutSec) * time.Second
	cfg.FailureRatio = c.CBFailureRatio
	cfg.MinRequests = c.CBMinRequests
	return cfg
}

// Redis returns the Redis connection settings. REDIS_ADDR has already been
// validated when the redis backend is selected.
func (c *Config) Redis() database.RedisConfig {
	cfg := database.DefaultRedisConfig()
	if host, port, err := net.SplitHostPort(c.RedisAddr); err == nil {
		cfg.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	cfg.Password = c.RedisPass
	cfg.DB = c.RedisDB
	return cfg
}

// Postgres returns the pool settings for the postgres backend.
func (c *Config) Postgres() database.PostgresConfig {
	cfg := database.DefaultPostgresConfig()
	cfg.Host = c.PostgresHost
	cfg.Port = c.PostgresPort
	cfg.User = c.PostgresUser
	cfg.Password = c.PostgresPassword
	cfg.DBName = c.PostgresDB
	cfg.SSLMode = c.PostgresSSLMode
	return cfg
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.OTELEndpoint
	cfg.SampleRate = c.OTELSampleRate
	cfg.Enabled = c.OTELEnabled
	return cfg
}
