package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the hls-stac-parquet CLI.
type Config struct {
	Destination          string        `yaml:"destination"`
	CatalogURL           string        `yaml:"catalog_url"`
	ClientID             string        `yaml:"client_id"`
	PageSize             int           `yaml:"page_size"`
	Timeout              time.Duration `yaml:"timeout"`
	Version              string        `yaml:"version"`
	MaxConcurrentDays    int           `yaml:"max_concurrent_days"`
	MaxConcurrentPerDay  int           `yaml:"max_concurrent_per_day"`
	FailureRateThreshold float64       `yaml:"failure_rate_threshold"`
	Progress             bool          `yaml:"progress"`
	Verbose              bool          `yaml:"verbose"`
	Retry                RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		CatalogURL:           "https://cmr.earthdata.nasa.gov/search",
		ClientID:             "hls-stac-parquet",
		PageSize:             2000,
		Timeout:              30 * time.Second,
		Version:              "v1",
		MaxConcurrentDays:    3,
		MaxConcurrentPerDay:  50,
		FailureRateThreshold: 0.05,
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Destination          string          `yaml:"destination"`
	CatalogURL           string          `yaml:"catalog_url"`
	ClientID             string          `yaml:"client_id"`
	PageSize             int             `yaml:"page_size"`
	Timeout              string          `yaml:"timeout"`
	Version              string          `yaml:"version"`
	MaxConcurrentDays    int             `yaml:"max_concurrent_days"`
	MaxConcurrentPerDay  int             `yaml:"max_concurrent_per_day"`
	FailureRateThreshold *float64        `yaml:"failure_rate_threshold"`
	Progress             bool            `yaml:"progress"`
	Verbose              bool            `yaml:"verbose"`
	Retry                yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Destination != "" {
		cfg.Destination = yc.Destination
	}
	if yc.CatalogURL != "" {
		cfg.CatalogURL = yc.CatalogURL
	}
	if yc.ClientID != "" {
		cfg.ClientID = yc.ClientID
	}
	if yc.PageSize != 0 {
		cfg.PageSize = yc.PageSize
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.Version != "" {
		cfg.Version = yc.Version
	}
	if yc.MaxConcurrentDays != 0 {
		cfg.MaxConcurrentDays = yc.MaxConcurrentDays
	}
	if yc.MaxConcurrentPerDay != 0 {
		cfg.MaxConcurrentPerDay = yc.MaxConcurrentPerDay
	}
	// A pointer keeps an explicit 0 (abort on any failure) distinguishable
	// from an unset key.
	if yc.FailureRateThreshold != nil {
		cfg.FailureRateThreshold = *yc.FailureRateThreshold
	}
	cfg.Progress = yc.Progress
	cfg.Verbose = yc.Verbose
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the HLS_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("HLS_DESTINATION"); v != "" {
		c.Destination = v
	}
	if v := os.Getenv("HLS_CATALOG_URL"); v != "" {
		c.CatalogURL = v
	}
	if v := os.Getenv("HLS_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("HLS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HLS_PAGE_SIZE: %w", err)
		}
		c.PageSize = n
	}
	if v := os.Getenv("HLS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse HLS_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("HLS_VERSION"); v != "" {
		c.Version = v
	}
	if v := os.Getenv("HLS_MAX_CONCURRENT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HLS_MAX_CONCURRENT_DAYS: %w", err)
		}
		c.MaxConcurrentDays = n
	}
	if v := os.Getenv("HLS_MAX_CONCURRENT_PER_DAY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HLS_MAX_CONCURRENT_PER_DAY: %w", err)
		}
		c.MaxConcurrentPerDay = n
	}
	if v := os.Getenv("HLS_FAILURE_RATE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse HLS_FAILURE_RATE_THRESHOLD: %w", err)
		}
		c.FailureRateThreshold = f
	}
	if v := os.Getenv("HLS_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("HLS_VERBOSE"); v != "" {
		c.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("HLS_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HLS_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("HLS_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse HLS_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("HLS_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse HLS_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Destination == "" {
		return errors.New("config: destination is required")
	}
	if c.CatalogURL == "" {
		return errors.New("config: catalog_url is required")
	}
	if c.PageSize <= 0 || c.PageSize > 2000 {
		return errors.New("config: page_size must be in [1, 2000]")
	}
	if c.MaxConcurrentDays <= 0 {
		return errors.New("config: max_concurrent_days must be positive")
	}
	if c.MaxConcurrentPerDay <= 0 {
		return errors.New("config: max_concurrent_per_day must be positive")
	}
	if c.FailureRateThreshold < 0 || c.FailureRateThreshold > 1 {
		return errors.New("config: failure_rate_threshold must be in [0, 1]")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Destination != "" {
		c.Destination = override.Destination
	}
	if override.CatalogURL != "" {
		c.CatalogURL = override.CatalogURL
	}
	if override.ClientID != "" {
		c.ClientID = override.ClientID
	}
	if override.PageSize != 0 {
		c.PageSize = override.PageSize
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.Version != "" {
		c.Version = override.Version
	}
	if override.MaxConcurrentDays != 0 {
		c.MaxConcurrentDays = override.MaxConcurrentDays
	}
	if override.MaxConcurrentPerDay != 0 {
		c.MaxConcurrentPerDay = override.MaxConcurrentPerDay
	}
	if override.FailureRateThreshold != 0 {
		c.FailureRateThreshold = override.FailureRateThreshold
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Verbose {
		c.Verbose = override.Verbose
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
