// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Metrics backends.
const (
	MetricsBackendPrometheus = "prometheus"
	MetricsBackendMemory     = "memory"
)

const minJWTSecretLength = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage. DATABASE_URL is only required for the postgres driver.
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"false"`

	// Cache (Redis). Optional; enables the principal cache, the shared login
	// limiter and the reminder worker.
	RedisURL          string        `env:"REDIS_URL"`
	PrincipalCacheTTL time.Duration `env:"PRINCIPAL_CACHE_TTL" envDefault:"5m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Credentials
	JWTSecret      string        `env:"JWT_SECRET,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`

	// Cookies
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAMESITE" envDefault:"lax"`

	// Login rate limiting (per client IP, applies to register and login)
	LoginRateLimitEnabled bool `env:"LOGIN_RATE_LIMIT_ENABLED" envDefault:"true"`
	LoginRatePerMinute    int  `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst            int  `env:"LOGIN_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://*.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Background reminder worker. Requires REDIS_URL.
	NotificationWorkerEnabled bool `env:"NOTIFICATION_WORKER_ENABLED" envDefault:"false"`

	MetricsBackend string `env:"METRICS_BACKEND" envDefault:"prometheus"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// RedisEnabled reports whether a Redis URL is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks constraints env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.MetricsBackend {
	case MetricsBackendPrometheus, MetricsBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown METRICS_BACKEND %q", c.MetricsBackend))
	}

	if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.NotificationWorkerEnabled && !c.RedisEnabled() {
		errs = append(errs, errors.New("NOTIFICATION_WORKER_ENABLED requires REDIS_URL"))
	}
	if c.LoginRatePerMinute < 0 || c.LoginBurst < 0 {
		errs = append(errs, errors.New("login rate limit values must not be negative"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
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
