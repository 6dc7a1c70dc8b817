package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the core runtime configuration for the service.
// Values are sourced from environment variables (optionally via a .env
// file loaded by main), with sensible defaults where appropriate.
type Config struct {
	AdminUser     string `env:"APP_ADMIN_USER" envDefault:"admin"`
	AdminPassword string `env:"APP_ADMIN_PASSWORD" envDefault:"changeme"`

	// DatabaseURL is a postgres:// or sqlite:// URL.
	DatabaseURL string `env:"APP_DATABASE_URL"`

	ListenAddr string `env:"APP_LISTEN_ADDR" envDefault:":8080"`

	// CORSOrigin is sent as Access-Control-Allow-Origin; empty disables CORS.
	CORSOrigin string `env:"APP_CORS_ORIGIN"`

	// RetentionDays is how long ingested events are kept before the
	// retention worker deletes them.
	RetentionDays int `env:"APP_RETENTION_DAYS" envDefault:"90"`

	// IngestAPIKey, when set, is registered at startup so clients can post
	// events without an admin creating a key first.
	IngestAPIKey string `env:"APP_INGEST_API_KEY"`

	// AnalyticsWindowDays bounds the batch fetched for analytics requests
	// that do not pass an explicit range.
	AnalyticsWindowDays int `env:"APP_ANALYTICS_WINDOW_DAYS" envDefault:"30"`

	// Timezone is the IANA zone used for calendar days, hours and weekdays.
	Timezone string `env:"APP_TIMEZONE" envDefault:"UTC"`

	CacheTTLSeconds int `env:"APP_CACHE_TTL_SECONDS" envDefault:"60"`

	LogLevel string `env:"APP_LOG_LEVEL" envDefault:"info"`
	// LogFile, when set, receives a rotated copy of the log stream.
	LogFile string `env:"APP_LOG_FILE"`

	location *time.Location
}

// Load reads configuration from environment variables. Out-of-range values
// are replaced with their defaults and reported in warnings; callers log them
// once the logger is configured.
func Load() (*Config, []string, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, nil, fmt.Errorf("parse environment: %w", err)
	}

	var warnings []string
	if cfg.RetentionDays <= 0 {
		warnings = append(warnings, fmt.Sprintf("APP_RETENTION_DAYS=%d is not positive, using 90", cfg.RetentionDays))
		cfg.RetentionDays = 90
	}
	if cfg.AnalyticsWindowDays <= 0 {
		warnings = append(warnings, fmt.Sprintf("APP_ANALYTICS_WINDOW_DAYS=%d is not positive, using 30", cfg.AnalyticsWindowDays))
		cfg.AnalyticsWindowDays = 30
	}
	if cfg.CacheTTLSeconds < 0 {
		warnings = append(warnings, fmt.Sprintf("APP_CACHE_TTL_SECONDS=%d is negative, caching disabled", cfg.CacheTTLSeconds))
		cfg.CacheTTLSeconds = 0
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("APP_TIMEZONE=%q: %v, using UTC", cfg.Timezone, err))
		cfg.Timezone = "UTC"
		loc = time.UTC
	}
	cfg.location = loc

	return cfg, warnings, nil
}

// Location returns the parsed Timezone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// CacheTTL is CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// AnalyticsWindow is AnalyticsWindowDays as a duration.
func (c *Config) AnalyticsWindow() time.Duration {
	return time.Duration(c.AnalyticsWindowDays) * 24 * time.Hour
}
