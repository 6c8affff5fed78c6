// Package config loads spanz wiring settings from SPANZ_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "SPANZ"

// Collector kinds.
const (
	CollectorJaeger  = "jaeger"
	CollectorZipkin  = "zipkin"
	CollectorGeneric = "generic"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the settings for a tracer with one collector reporter.
type Config struct {
	ServiceName   string        `envconfig:"SERVICE_NAME" default:"spanz"`
	Collector     string        `envconfig:"COLLECTOR" default:"jaeger"`
	JaegerURL     string        `envconfig:"JAEGER_URL" default:"http://localhost:14268"`
	ZipkinURL     string        `envconfig:"ZIPKIN_URL" default:"http://localhost:9411"`
	CollectorURL  string        `envconfig:"COLLECTOR_URL" default:"http://localhost:7855"`
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"1s"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"warning"`
	// Components is a namespace query; empty disables component filtering.
	Components string `envconfig:"COMPONENTS"`
	// SpanLogLevel is the minimum span log level forwarded to log sinks.
	SpanLogLevel string  `envconfig:"SPAN_LOG_LEVEL" default:"info"`
	RetryCount   int     `envconfig:"RETRY_COUNT" default:"3"`
	RateLimit    float64 `envconfig:"RATE_LIMIT" default:"0"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		ServiceName:   "spanz",
		Collector:     CollectorJaeger,
		JaegerURL:     "http://localhost:14268",
		ZipkinURL:     "http://localhost:9411",
		CollectorURL:  "http://localhost:7855",
		FlushInterval: time.Second,
		LogLevel:      "warning",
		SpanLogLevel:  "info",
		RetryCount:    3,
	}
}

// Validate checks the collector kind and numeric ranges.
func (c *Config) Validate() error {
	switch c.Collector {
	case CollectorJaeger, CollectorZipkin, CollectorGeneric:
	default:
		return fmt.Errorf("%w: unknown collector %q", ErrInvalidConfig, c.Collector)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive", ErrInvalidConfig)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("%w: retry count must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CollectorBaseURL returns the base URL of the selected collector.
func (c *Config) CollectorBaseURL() string {
	switch c.Collector {
	case CollectorZipkin:
		return c.ZipkinURL
	case CollectorGeneric:
		return c.CollectorURL
	default:
		return c.JaegerURL
	}
}
