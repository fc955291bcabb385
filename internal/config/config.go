// Package config loads and validates the application configuration.
// Precedence, lowest to highest: built-in defaults, the optional YAML
// config file, environment variables (FALAK_ prefix).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for all environment variables.
const EnvPrefix = "FALAK"

// Duration wraps time.Duration so values like "30s" parse from both YAML
// and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler (used by envconfig).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.v2 unmarshalling.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(raw))
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Graph   GraphConfig   `yaml:"graph" envconfig:"GRAPH"`
	Layout  LayoutConfig  `yaml:"layout" envconfig:"LAYOUT"`
	Catalog CatalogConfig `yaml:"catalog" envconfig:"CATALOG"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     Duration        `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    Duration        `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     Duration        `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout Duration        `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	File   string `yaml:"file" envconfig:"FILE"`
}

// GraphConfig controls the correlation graph build.
type GraphConfig struct {
	Threshold       float64  `yaml:"threshold" envconfig:"THRESHOLD" validate:"gte=0,lte=1"`
	MarketProxyKey  string   `yaml:"market_proxy_key" envconfig:"MARKET_PROXY_KEY" validate:"required"`
	RefreshInterval Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" validate:"gt=0"`
}

// LayoutConfig controls the constellation layout. These are tunables, not
// hard contracts; see the layout package.
type LayoutConfig struct {
	MinNodeDistance float64 `yaml:"min_node_distance" envconfig:"MIN_NODE_DISTANCE" validate:"gt=0"`
	RelaxPasses     int     `yaml:"relax_passes" envconfig:"RELAX_PASSES" validate:"gte=0"`
	CategoryGapDeg  float64 `yaml:"category_gap_deg" envconfig:"CATEGORY_GAP_DEG" validate:"gte=0,lt=72"`
	HubRadius       float64 `yaml:"hub_radius" envconfig:"HUB_RADIUS" validate:"gte=0"`
}

// CatalogConfig selects the instrument universe source. An empty file path
// means the built-in fallback universe. HistoryDir optionally points at a
// directory of per-instrument price CSVs used to lengthen return series
// beyond the embedded sparklines.
type CatalogConfig struct {
	File       string `yaml:"file" envconfig:"FILE"`
	HistoryDir string `yaml:"history_dir" envconfig:"HISTORY_DIR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stdout",
			File:   "logs/falak.log",
		},
		Graph: GraphConfig{
			Threshold:       0.25,
			MarketProxyKey:  "SPX",
			RefreshInterval: Duration(60 * time.Second),
		},
		Layout: LayoutConfig{
			MinNodeDistance: 48,
			RelaxPasses:     4,
			CategoryGapDeg:  12,
			HubRadius:       120,
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path (skipped when empty or absent), then environment overrides, then
// validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	// No default tags on the struct: envconfig only touches fields whose
	// environment variable is actually set.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return nil
}
