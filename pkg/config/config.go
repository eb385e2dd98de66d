package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for happydata-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the database password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// WorldBank holds upstream API client settings.
	WorldBank WorldBankConfig `yaml:"worldbank"`

	// Happiness holds spreadsheet ingestion settings.
	Happiness HappinessConfig `yaml:"happiness"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"happydata"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"happydata_engine"`
	// MaxConnections of 0 defers to the database package's pool default.
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// WorldBankConfig holds settings for the World Bank API client and the
// observation refresh fan-out.
type WorldBankConfig struct {
	// BaseURL is the World Bank API root. No auth is required.
	BaseURL string `yaml:"base_url" env:"WB_BASE_URL" env-default:"https://api.worldbank.org/v2"`

	// RequestTimeoutSeconds bounds a single upstream call so a hung request
	// fails alone instead of stalling a whole batch.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" env:"WB_REQUEST_TIMEOUT_SECONDS" env-default:"30"`

	// PageSize is passed as per_page on every request. It is sized above the
	// known record-count upper bound so responses never paginate.
	PageSize int `yaml:"page_size" env:"WB_PAGE_SIZE" env-default:"1000"`

	// StartYear and EndYear bound the observation retrieval window
	// (date=start:end upstream syntax).
	StartYear int `yaml:"start_year" env:"WB_START_YEAR" env-default:"2020"`
	EndYear   int `yaml:"end_year" env:"WB_END_YEAR" env-default:"2025"`

	// CatalogCacheTTLMinutes is the response-cache TTL for country and
	// indicator catalog requests.
	CatalogCacheTTLMinutes int `yaml:"catalog_cache_ttl_minutes" env:"WB_CATALOG_CACHE_TTL_MINUTES" env-default:"60"`

	// SeriesCacheTTLMinutes is the response-cache TTL for time-series
	// requests, which are issued far more often and in bulk.
	SeriesCacheTTLMinutes int `yaml:"series_cache_ttl_minutes" env:"WB_SERIES_CACHE_TTL_MINUTES" env-default:"30"`

	// MaxConcurrent bounds the observation fan-out worker pool against the
	// upstream API.
	MaxConcurrent int `yaml:"max_concurrent" env:"WB_MAX_CONCURRENT" env-default:"8"`
}

// HappinessConfig holds settings for World Happiness Report ingestion.
type HappinessConfig struct {
	// StartYear and EndYear define the supported year range; spreadsheet rows
	// outside the range are discarded.
	StartYear int `yaml:"start_year" env:"HAPPINESS_START_YEAR" env-default:"2020"`
	EndYear   int `yaml:"end_year" env:"HAPPINESS_END_YEAR" env-default:"2025"`
}

// RequestTimeout returns the upstream request timeout as a duration.
func (c *WorldBankConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CatalogCacheTTL returns the catalog response-cache TTL as a duration.
func (c *WorldBankConfig) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLMinutes) * time.Minute
}

// SeriesCacheTTL returns the time-series response-cache TTL as a duration.
func (c *WorldBankConfig) SeriesCacheTTL() time.Duration {
	return time.Duration(c.SeriesCacheTTLMinutes) * time.Minute
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Load reads configuration from config.yaml (if present) and environment
// variables. Environment variables take precedence.
func Load(version string) (*Config, error) {
	cfg := &Config{}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.WorldBank.StartYear > c.WorldBank.EndYear {
		return fmt.Errorf("worldbank start_year %d is after end_year %d",
			c.WorldBank.StartYear, c.WorldBank.EndYear)
	}
	if c.Happiness.StartYear > c.Happiness.EndYear {
		return fmt.Errorf("happiness start_year %d is after end_year %d",
			c.Happiness.StartYear, c.Happiness.EndYear)
	}
	if c.WorldBank.MaxConcurrent < 1 {
		return fmt.Errorf("worldbank max_concurrent must be at least 1, got %d",
			c.WorldBank.MaxConcurrent)
	}
	return nil
}
