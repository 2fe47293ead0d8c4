// Package config defines the configuration surface for the push delivery
// platform and its loading lifecycle: a .env file for local development,
// environment variables processed through envconfig struct tags, and
// struct-level validation via go-playground/validator.
package config

import (
	"time"

	"expopush/internal/types"
)

// Config is the root configuration for all binaries. Leaf fields carry
// absolute envconfig tags, so the same struct serves the API server and the
// push worker.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Expo     ExpoConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Metrics  MetricsConfig
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Port            int           `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// ExpoConfig holds the relay endpoint and credential. The access token is a
// SecretString so it cannot leak through logs or config dumps; it is
// substituted into the Authorization header and nowhere else.
type ExpoConfig struct {
	BaseURL     string             `envconfig:"EXPO_BASE_URL" default:"https://exp.host/--/api/v2/push/send" validate:"required,url"`
	AccessToken types.SecretString `envconfig:"EXPO_ACCESS_TOKEN"`
	Timeout     time.Duration      `envconfig:"EXPO_TIMEOUT" default:"10s" validate:"min=1ms"`
	UserAgent   string             `envconfig:"EXPO_USER_AGENT" default:"expopush/1.0"`
}

// DatabaseConfig holds the Postgres connection settings for the token store.
type DatabaseConfig struct {
	URL      types.SecretString `envconfig:"DATABASE_URL"`
	MaxConns int                `envconfig:"DATABASE_MAX_CONNS" default:"4" validate:"min=1"`
}

// CacheConfig holds the Redis settings for the token cache.
type CacheConfig struct {
	Addr     string             `envconfig:"REDIS_ADDR"`
	Password types.SecretString `envconfig:"REDIS_PASSWORD"`
	DB       int                `envconfig:"REDIS_DB" default:"0"`
	TokenTTL time.Duration      `envconfig:"REDIS_TOKEN_TTL" default:"5m" validate:"min=1s"`
}

// QueueConfig holds the SQS queue settings for the push worker.
type QueueConfig struct {
	URL string `envconfig:"PUSH_QUEUE_URL"`
}

// MetricsConfig holds the CloudWatch telemetry settings.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"ExpoPush"`
}

// IsLocal reports whether the process runs in local development mode.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}
