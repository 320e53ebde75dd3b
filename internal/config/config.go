// Package config provides configuration management for the simulator.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Defaults applied by Normalize when the corresponding field is unset.
const (
	defaultSessionTTLSeconds = 30 * 60
	defaultSweepIntervalSecs = 60
	defaultChainSize         = 15
	defaultTick              = 0.02
	defaultSpread            = 0.02
	defaultHTTPAddr          = ":8080"
	defaultLogLevel          = "info"
	defaultHistoricalSource  = "mock"
)

// Config represents the complete application configuration, read from a
// YAML file in which ${VAR}-style environment references are expanded (see
// Load). Environment variables are not consulted otherwise: one that the
// file does not reference changes nothing.
type Config struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Session     SessionConfig     `yaml:"session"`
	Pricing     PricingConfig     `yaml:"pricing"`
	HTTP        HTTPConfig        `yaml:"http"`
	Historical  HistoricalConfig  `yaml:"historical"`
	Storage     StorageConfig     `yaml:"storage"`
}

// EnvironmentConfig defines ambient logging/runtime settings.
type EnvironmentConfig struct {
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// SessionConfig controls session lifetime and reclamation cadence.
type SessionConfig struct {
	TTLSeconds           int `yaml:"ttl_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// PricingConfig carries ChainBuilder's tunable defaults.
type PricingConfig struct {
	DefaultChainSize int     `yaml:"default_chain_size"`
	DefaultTick      float64 `yaml:"default_tick"`
	DefaultSpread    float64 `yaml:"default_spread"`
}

// HTTPConfig defines the API server's listen address.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HistoricalConfig selects and configures the HistoricalPriceSource
// collaborator. Provider credentials are deliberately opaque strings here —
// the core engine never interprets them (spec §6).
type HistoricalConfig struct {
	Provider         string `yaml:"provider"` // mock | tradier (provider-specific credentials opaque to the core)
	APIKey           string `yaml:"api_key"`
	CircuitBreaker   bool   `yaml:"circuit_breaker_enabled"`
	RetryMaxAttempts int    `yaml:"retry_max_attempts"`
}

// StorageConfig controls the optional FileStore snapshot decorator.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path"` // empty disables snapshotting
}

// Load reads and parses the configuration file from the specified path,
// expanding ${VAR}-style environment references, then normalizes and
// validates the result.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is an operator-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", configPath, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", configPath, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Normalize fills every unset field with its documented default.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Environment.LogLevel) == "" {
		c.Environment.LogLevel = defaultLogLevel
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = defaultSessionTTLSeconds
	}
	if c.Session.SweepIntervalSeconds == 0 {
		c.Session.SweepIntervalSeconds = defaultSweepIntervalSecs
	}
	if c.Pricing.DefaultChainSize == 0 {
		c.Pricing.DefaultChainSize = defaultChainSize
	}
	if c.Pricing.DefaultTick == 0 {
		c.Pricing.DefaultTick = defaultTick
	}
	if c.Pricing.DefaultSpread == 0 {
		c.Pricing.DefaultSpread = defaultSpread
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = defaultHTTPAddr
	}
	if strings.TrimSpace(c.Historical.Provider) == "" {
		c.Historical.Provider = defaultHistoricalSource
	}
	if c.Historical.RetryMaxAttempts == 0 {
		c.Historical.RetryMaxAttempts = 3
	}
}

// Validate checks that every configuration value is structurally sound.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Environment.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("environment.log_level must be one of: debug, info, warn, error")
	}

	if c.Session.TTLSeconds <= 0 {
		return fmt.Errorf("session.ttl_seconds must be > 0")
	}
	if c.Session.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("session.sweep_interval_seconds must be > 0")
	}

	if c.Pricing.DefaultChainSize <= 0 {
		return fmt.Errorf("pricing.default_chain_size must be > 0")
	}
	if c.Pricing.DefaultTick <= 0 {
		return fmt.Errorf("pricing.default_tick must be > 0")
	}
	if c.Pricing.DefaultSpread <= 0 {
		return fmt.Errorf("pricing.default_spread must be > 0")
	}

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required (set in Normalize)")
	}

	switch strings.ToLower(c.Historical.Provider) {
	case "mock", "tradier":
	default:
		return fmt.Errorf("historical.provider must be 'mock' or 'tradier'")
	}
	if c.Historical.Provider == "tradier" && strings.TrimSpace(c.Historical.APIKey) == "" {
		return fmt.Errorf("historical.api_key is required when provider is 'tradier'")
	}
	if c.Historical.RetryMaxAttempts < 0 {
		return fmt.Errorf("historical.retry_max_attempts must be >= 0")
	}

	return nil
}

// SessionTTL returns the configured session TTL as a time.Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// SweepInterval returns the configured TTL-sweep cadence as a time.Duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Session.SweepIntervalSeconds) * time.Second
}
