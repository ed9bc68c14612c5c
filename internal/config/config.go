package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/innospot/capability-hub/pkg/config"
)

// Config holds all configuration for the capability hub.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Ops HTTP listener (health, readiness, metrics)
	OpsPort int `env:"OPS_PORT" envDefault:"8090"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"innospot"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"innospot_secret"`
	PostgresDB   string `env:"CAPABILITY_HUB_DB_NAME" envDefault:"capability_hub_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (review stats cache)
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Review workflow
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	VerifyBaseURL        string        `env:"VERIFY_BASE_URL" envDefault:"https://app.innospot.com/verify-review"`

	// Integration registry
	WebhookTestTimeout time.Duration `env:"WEBHOOK_TEST_TIMEOUT" envDefault:"15s"`

	// Tracing
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load capability hub config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.OpsPort < 1 || c.OpsPort > 65535 {
		return fmt.Errorf("invalid ops port: %d", c.OpsPort)
	}
	if c.VerificationTokenTTL <= 0 {
		return fmt.Errorf("verification token TTL must be positive, got %s", c.VerificationTokenTTL)
	}
	if c.WebhookTestTimeout <= 0 {
		return fmt.Errorf("webhook test timeout must be positive, got %s", c.WebhookTestTimeout)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
