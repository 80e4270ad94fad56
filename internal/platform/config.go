// Package platform carries the cross-cutting concerns shared by all three
// binaries: environment-driven configuration, structured logging, and
// Prometheus metrics.
package platform

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)


// Config holds every environment-driven setting across the edge, hotstorage,
// and api binaries. Each binary's main() reads only the fields it needs.
//
// Tags:
//
//	env: environment variable name
//	envDefault: default value if not set
type Config struct {
	// Event bus.
	Broker         string        `env:"BROKER"`
	Topic          string        `env:"COMMENTER_TOPIC" envDefault:"comments"`
	ProduceTimeout time.Duration `env:"PRODUCE_TIMEOUT" envDefault:"5s"`

	// Edge WebSocket listener.
	WarpAddress string `env:"WARP_ADDRESS" envDefault:"0.0.0.0"`
	WarpPort    int    `env:"WARP_PORT" envDefault:"3000"`

	// Prior-state lookup.
	ResolverBaseURL string        `env:"RESOLVER_BASE_URL" envDefault:"http://localhost:8000"`
	ResolverTimeout time.Duration `env:"RESOLVER_TIMEOUT" envDefault:"3s"`

	// Relational store.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/commenter"`

	// Lookup API listener.
	APIAddress string `env:"API_ADDRESS" envDefault:"0.0.0.0:8000"`

	// Logging.
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from an optional .env file and the environment.
// Priority: real environment variables > .env file > struct defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("platform: no .env file found, using environment variables only")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("platform: parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("platform: validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every binary depends on regardless of which
// fields it actually reads — a missing BROKER, for instance, is a
// configuration error at startup that should exit immediately.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("BROKER must be set")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "pretty": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of json, pretty (got %q)", c.LogFormat)
	}
	return nil
}

// Brokers splits the comma-separated BROKER setting into a slice.
func (c *Config) Brokers() []string {
	var out []string
	for _, piece := range strings.Split(c.Broker, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// NewLogger builds a zerolog.Logger for the named service, JSON by default
// (Loki-compatible), pretty console output when LogFormat is "pretty".
func NewLogger(cfg *Config, service string) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if cfg.LogFormat == "pretty" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.With().Timestamp().Str("service", service).Logger()
}
