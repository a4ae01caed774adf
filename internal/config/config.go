// Package config loads application configuration from environment
// variables (PLAPULSE_* prefix) layered over an optional YAML file, with
// defaults declared in struct tags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "PLAPULSE"

// defaultConfigFile is consulted when PLAPULSE_CONFIG is not set.
const defaultConfigFile = "config.yaml"

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Datasets DatasetsConfig `yaml:"datasets" envconfig:"DATASETS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DatasetsConfig names the source resource per dataset kind. Identifiers
// are local paths or raw HTTPS URLs; the fetch package handles both.
type DatasetsConfig struct {
	ComprehensiveSource string `yaml:"comprehensive_source" envconfig:"COMPREHENSIVE_SOURCE" default:"data/merged_comprehensive_data_M.csv"`
	StraitTransitSource string `yaml:"strait_transit_source" envconfig:"STRAIT_TRANSIT_SOURCE" default:"data/JapanandBattleship.csv"`
}

// Source returns the configured source identifier for a dataset kind
// name ("comprehensive" or "strait-transit").
func (d DatasetsConfig) Source(kind string) (string, bool) {
	switch kind {
	case "comprehensive":
		return d.ComprehensiveSource, true
	case "strait-transit":
		return d.StraitTransitSource, true
	default:
		return "", false
	}
}

// Load loads configuration from the optional YAML file, then applies
// environment overrides and defaults.
func Load() (*Config, error) {
	var cfg Config

	configFile := os.Getenv(envPrefix + "_CONFIG")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	// envconfig fills env overrides and struct-tag defaults for fields
	// the file left unset.
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks configuration invariants after load.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Security.RateLimit.Enabled {
		if c.Security.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limit rps must be positive, got %v", c.Security.RateLimit.RPS)
		}
		if c.Security.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive, got %d", c.Security.RateLimit.Burst)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if c.Datasets.ComprehensiveSource == "" || c.Datasets.StraitTransitSource == "" {
		return fmt.Errorf("dataset sources must not be empty")
	}
	return nil
}
