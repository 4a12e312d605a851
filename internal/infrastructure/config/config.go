package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the formbd tooling.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	CLI     CLIConfig     `yaml:"cli"`
}

// EngineConfig contains native engine library settings.
type EngineConfig struct {
	// Library is an explicit path to the formbd shared library.
	// If empty, the library is discovered via the FORMBD_LIBRARY
	// environment variable and then platform-conventional names.
	Library string `yaml:"library"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CLIConfig contains defaults for the formbd command-line tool.
type CLIConfig struct {
	// Database is the default database path used when --db is not given.
	Database string `yaml:"database"`

	// ApplyJobs is the number of operations applied concurrently by
	// `formbd apply`, each in its own transaction. 1 means serial.
	ApplyJobs int `yaml:"apply_jobs"`

	// PollIntervalMS is the journal polling interval for
	// `formbd journal --follow`, in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FORMBD_KEY
// For example: FORMBD_LIBRARY, FORMBD_DATABASE, FORMBD_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment variable
// overrides applied. Used when no config file exists.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		CLI: CLIConfig{
			Database:       "./data/app.formbd",
			ApplyJobs:      1,
			PollIntervalMS: 1000,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FORMBD_KEY
func applyEnvOverrides(cfg *Config) {
	// Engine. Same variable the library discovery honours, so setting it
	// once covers both the config layer and direct API use.
	if v := os.Getenv("FORMBD_LIBRARY"); v != "" {
		cfg.Engine.Library = v
	}

	// CLI
	if v := os.Getenv("FORMBD_DATABASE"); v != "" {
		cfg.CLI.Database = v
	}

	// Logging
	if v := os.Getenv("FORMBD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FORMBD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json", "pretty":
	default:
		errs = append(errs, "logging.format must be one of: text, json, pretty")
	}

	switch c.Logging.Output {
	case "stdout", "stderr":
	default:
		errs = append(errs, "logging.output must be one of: stdout, stderr")
	}

	// CLI validation
	if c.CLI.Database == "" {
		errs = append(errs, "cli.database is required")
	}

	if c.CLI.ApplyJobs < 1 {
		errs = append(errs, "cli.apply_jobs must be at least 1")
	}

	if c.CLI.PollIntervalMS < 1 {
		errs = append(errs, "cli.poll_interval_ms must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the journal polling interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.CLI.PollIntervalMS) * time.Millisecond
}
