// Package config provides configuration management for the feed generator.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingInputPath    = errors.New("input.path is required")
	ErrMissingOutputDir    = errors.New("output.dir is required")
	ErrInvalidMaxItems     = errors.New("scrape.max_items must be at least 1")
	ErrInvalidMaxAttempts  = errors.New("scrape.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay = errors.New("scrape.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoff      = errors.New("scrape.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout      = errors.New("scrape.retry.timeout_sec must be at least 1")
	ErrMissingRemote       = errors.New("publish.remote is required when publishing is enabled")
	ErrMissingBranch       = errors.New("publish.branch is required when publishing is enabled")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be 'text' or 'json'")
)

// Config represents the complete feedmill configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Publish   PublishConfig   `yaml:"publish"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InputConfig locates the source spreadsheet.
type InputConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
}

// OutputConfig defines where feed files land and how the index links to them.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// BaseURL is the public prefix the index uses to reference feed
	// files. Empty means file:// URLs pointing at the output dir.
	BaseURL string `yaml:"base_url"`
}

// SynthesisConfig controls feed document generation.
type SynthesisConfig struct {
	Language          string `yaml:"language"`
	RejectEmptyGroups bool   `yaml:"reject_empty_groups"`
}

// ScrapeConfig controls fetching of listing pages for source-schema sheets.
type ScrapeConfig struct {
	Enabled   bool        `yaml:"enabled"`
	UserAgent string      `yaml:"user_agent"`
	MaxItems  int         `yaml:"max_items"`
	Retry     RetryPolicy `yaml:"retry"`
}

// RetryPolicy defines retry behavior for page fetches.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// PublishConfig controls the best-effort git commit/push step.
type PublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Remote      string `yaml:"remote"`
	Branch      string `yaml:"branch"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path: "feeds.xlsx",
		},
		Output: OutputConfig{
			Dir: "output_feeds",
		},
		Synthesis: SynthesisConfig{
			Language: "it",
		},
		Scrape: ScrapeConfig{
			Enabled:   true,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			MaxItems:  50,
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        25,
			},
		},
		Publish: PublishConfig{
			Enabled: false,
			Remote:  "origin",
			Branch:  "main",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file. Values absent from
// the file keep their defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return ErrMissingInputPath
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	// Scrape limits only matter when the scraper can run at all.
	if c.Scrape.Enabled {
		if c.Scrape.MaxItems < 1 {
			return ErrInvalidMaxItems
		}

		if c.Scrape.Retry.MaxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}

		if c.Scrape.Retry.InitialDelayMs < 0 {
			return ErrInvalidInitialDelay
		}

		if c.Scrape.Retry.BackoffMultiplier < 1.0 {
			return ErrInvalidBackoff
		}

		if c.Scrape.Retry.TimeoutSec < 1 {
			return ErrInvalidTimeout
		}
	}

	if c.Publish.Enabled {
		if c.Publish.Remote == "" {
			return ErrMissingRemote
		}

		if c.Publish.Branch == "" {
			return ErrMissingBranch
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetRetryDelay calculates exponential backoff delay for attempt
// number. The first retry (attempt 2) waits the initial delay; each
// later attempt multiplies it by the backoff factor.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Input: %s, Output: %s, Publish: %v}",
		c.Input.Path,
		c.Output.Dir,
		c.Publish.Enabled,
	)
}
