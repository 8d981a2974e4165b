// Package config provides configuration management for the trending-music scraper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: TTMUSIC_SOURCE__ENDPOINT -> source.endpoint.
const EnvPrefix = "TTMUSIC_"

// Configuration validation errors.
var (
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("http.timeout_sec must be at least 1")
	ErrInvalidLimit             = errors.New("source.limit must be non-negative")
	ErrMissingOutputPath        = errors.New("output.jsonl_path is required")
	ErrMissingMockPath          = errors.New("source.mock_path is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete scraper configuration.
type Config struct {
	Source   SourceConfig   `koanf:"source"   yaml:"source"`
	HTTP     HTTPConfig     `koanf:"http"     yaml:"http"`
	Output   OutputConfig   `koanf:"output"   yaml:"output"`
	Logging  LoggingConfig  `koanf:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"  yaml:"metrics"`
	Retry    RetryPolicy    `koanf:"retry"    yaml:"retry"`
	Features FeaturesConfig `koanf:"features" yaml:"features"`
	Advanced AdvancedConfig `koanf:"advanced" yaml:"advanced"`
}

// SourceConfig describes where raw records come from.
type SourceConfig struct {
	Mock     *bool  `koanf:"mock"      yaml:"mock,omitempty"`
	Endpoint string `koanf:"endpoint"  yaml:"endpoint"       validate:"omitempty,url"`
	MockPath string `koanf:"mock_path" yaml:"mock_path"`
	Region   string `koanf:"region"    yaml:"region"         validate:"omitempty,alpha"`
	Limit    int    `koanf:"limit"     yaml:"limit"`
}

// HTTPConfig holds live-endpoint client settings.
type HTTPConfig struct {
	UserAgent  string `koanf:"user_agent"  yaml:"user_agent"`
	TimeoutSec int    `koanf:"timeout_sec" yaml:"timeout_sec"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	RetryStatuses     []int   `koanf:"retry_statuses"     yaml:"retry_statuses"`
	MaxAttempts       int     `koanf:"max_attempts"       yaml:"max_attempts"`
	InitialDelayMs    int     `koanf:"initial_delay_ms"   yaml:"initial_delay_ms"`
	MaxDelayMs        int     `koanf:"max_delay_ms"       yaml:"max_delay_ms"`
	BackoffMultiplier float64 `koanf:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	JSONLPath     string `koanf:"jsonl_path"     yaml:"jsonl_path"`
	CSVPath       string `koanf:"csv_path"       yaml:"csv_path"`
	WriteManifest bool   `koanf:"write_manifest" yaml:"write_manifest"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level      string `koanf:"level"       yaml:"level"`
	File       string `koanf:"file"        yaml:"file"`
	SampleRows int    `koanf:"sample_rows" yaml:"sample_rows" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" yaml:"textfile"`
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnablePreview bool `koanf:"enable_preview" yaml:"enable_preview"`
}

// AdvancedConfig contains advanced settings.
type AdvancedConfig struct {
	BufferSizeKb int `koanf:"buffer_size_kb" yaml:"buffer_size_kb" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			MockPath: filepath.Join("data", "sample_output.json"),
			Region:   "US",
			Limit:    50,
		},
		HTTP: HTTPConfig{
			UserAgent:  "Mozilla/5.0 (compatible; ttmusic-scraper/1.0)",
			TimeoutSec: 20,
		},
		Retry: RetryPolicy{
			MaxAttempts:       4,
			InitialDelayMs:    300,
			MaxDelayMs:        5000,
			BackoffMultiplier: 2.0,
			RetryStatuses:     []int{429, 500, 502, 503, 504},
		},
		Output: OutputConfig{
			JSONLPath:     filepath.Join("data", "out.jsonl"),
			WriteManifest: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			SampleRows: 5,
		},
		Advanced: AdvancedConfig{
			BufferSizeKb: 8192,
		},
	}
}

// LoadConfig layers defaults, an optional .env file next to the config, the
// optional YAML file at path, and TTMUSIC_ environment overrides.
func LoadConfig(path string) (*Config, error) {
	envFile := ".env"
	if path != "" {
		envFile = filepath.Join(filepath.Dir(path), ".env")
	}

	// .env is optional.
	_ = godotenv.Load(envFile)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var structValidator = validator.New()

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return err
	}

	if c.Source.Limit < 0 {
		return ErrInvalidLimit
	}

	if c.Source.MockPath == "" {
		return ErrMissingMockPath
	}

	if c.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Output.JSONLPath == "" {
		return ErrMissingOutputPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// IsRetryableStatus reports whether an HTTP status should be retried.
func (rp *RetryPolicy) IsRetryableStatus(status int) bool {
	for _, s := range rp.RetryStatuses {
		if s == status {
			return true
		}
	}

	return false
}

// GetTimeout returns the per-request timeout.
func (h *HTTPConfig) GetTimeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Endpoint: %q, Region: %s, Limit: %d, Output: %s}",
		c.Source.Endpoint,
		c.Source.Region,
		c.Source.Limit,
		c.Output.JSONLPath,
	)
}
