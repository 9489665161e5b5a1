// Package config loads and validates the imagebuilder configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   string          `yaml:"version,omitempty"`
	Server    ServerConfig    `yaml:"server"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Engine    EngineConfig    `yaml:"engine"`
	Build     BuildConfig     `yaml:"build"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":5000"
}

// WorkspaceConfig represents build workspace configuration.
type WorkspaceConfig struct {
	Root          string      `yaml:"root"`           // scratch root for per-build directories
	SweepInterval string      `yaml:"sweep_interval"` // janitor period; "0" disables
	SweepMaxAge   string      `yaml:"sweep_max_age"`  // age before a leftover directory is swept
	Retry         RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig tunes how workspace preparation retries transient filesystem
// failures.
type RetryConfig struct {
	Backoff  string `yaml:"backoff,omitempty"`   // fixed|linear|exponential
	Delay    string `yaml:"delay,omitempty"`     // base delay between attempts
	MaxDelay string `yaml:"max_delay,omitempty"` // cap for the growing modes
	Attempts int    `yaml:"attempts,omitempty"`  // total attempts, first try included
}

// EngineConfig represents container engine client configuration.
type EngineConfig struct {
	// Host overrides the engine endpoint. Empty means the environment
	// (DOCKER_HOST and friends) decides.
	Host string `yaml:"host,omitempty"`
}

// BuildConfig represents build pipeline configuration.
type BuildConfig struct {
	Timeout string `yaml:"timeout"` // whole-pipeline bound; "0" disables
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Defaults applied when the file omits a value.
const (
	DefaultAddr          = ":5000"
	DefaultWorkspaceRoot = "/tmp/builds"
	DefaultSweepInterval = "30m"
	DefaultSweepMaxAge   = "2h"
	DefaultBuildTimeout  = "15m"
	DefaultRetryBackoff  = string(RetryBackoffFixed)
	DefaultRetryDelay    = "1s"
	DefaultRetryMaxDelay = "10s"
	DefaultRetryAttempts = 3
)

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version != "" && !strings.HasPrefix(config.Version, "1.") {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.x)", config.Version)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadOrDefault behaves like Load but substitutes built-in defaults when the
// file does not exist. The .env preload still runs so engine and expansion
// variables are in place either way.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := loadEnvFile(); err != nil {
			fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
		}
		return Default(), nil
	}
	return Load(configPath)
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = DefaultAddr
	}
	if config.Workspace.Root == "" {
		config.Workspace.Root = DefaultWorkspaceRoot
	}
	if config.Workspace.SweepInterval == "" {
		config.Workspace.SweepInterval = DefaultSweepInterval
	}
	if config.Workspace.SweepMaxAge == "" {
		config.Workspace.SweepMaxAge = DefaultSweepMaxAge
	}
	if config.Build.Timeout == "" {
		config.Build.Timeout = DefaultBuildTimeout
	}
	if config.Workspace.Retry.Backoff == "" {
		config.Workspace.Retry.Backoff = DefaultRetryBackoff
	}
	if config.Workspace.Retry.Delay == "" {
		config.Workspace.Retry.Delay = DefaultRetryDelay
	}
	if config.Workspace.Retry.MaxDelay == "" {
		config.Workspace.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if config.Workspace.Retry.Attempts == 0 {
		config.Workspace.Retry.Attempts = DefaultRetryAttempts
	}
	config.Logging.Level = NormalizeLogLevel(string(config.Logging.Level))
	config.Logging.Format = NormalizeLogFormat(string(config.Logging.Format))
}

func validateConfig(config *Config) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"workspace.sweep_interval", config.Workspace.SweepInterval},
		{"workspace.sweep_max_age", config.Workspace.SweepMaxAge},
		{"workspace.retry.delay", config.Workspace.Retry.Delay},
		{"workspace.retry.max_delay", config.Workspace.Retry.MaxDelay},
		{"build.timeout", config.Build.Timeout},
	} {
		if _, err := parseDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	if NormalizeRetryBackoff(config.Workspace.Retry.Backoff) == "" {
		return fmt.Errorf("workspace.retry.backoff: unknown mode %q (valid: %v)",
			config.Workspace.Retry.Backoff, retryBackoffNormalizer.ValidKeys())
	}
	if config.Workspace.Retry.Attempts < 1 {
		return fmt.Errorf("workspace.retry.attempts: must be at least 1, got %d", config.Workspace.Retry.Attempts)
	}
	return nil
}

// parseDuration accepts Go duration syntax plus a bare "0" meaning disabled.
func parseDuration(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", raw)
	}
	return d, nil
}

// BuildTimeout returns the parsed pipeline bound; zero disables the bound.
func (c *Config) BuildTimeout() time.Duration {
	d, _ := parseDuration(c.Build.Timeout)
	return d
}

// SweepInterval returns the parsed janitor period; zero disables the janitor.
func (c *Config) SweepInterval() time.Duration {
	d, _ := parseDuration(c.Workspace.SweepInterval)
	return d
}

// SweepMaxAge returns how old a leftover workspace must be before sweeping.
func (c *Config) SweepMaxAge() time.Duration {
	d, _ := parseDuration(c.Workspace.SweepMaxAge)
	return d
}

// RetryDelay returns the parsed base delay between prepare attempts.
func (c *Config) RetryDelay() time.Duration {
	d, _ := parseDuration(c.Workspace.Retry.Delay)
	return d
}

// RetryMaxDelay returns the parsed delay cap for the growing backoff modes.
func (c *Config) RetryMaxDelay() time.Duration {
	d, _ := parseDuration(c.Workspace.Retry.MaxDelay)
	return d
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Workspace: WorkspaceConfig{
			Root:          DefaultWorkspaceRoot,
			SweepInterval: DefaultSweepInterval,
			SweepMaxAge:   DefaultSweepMaxAge,
			Retry: RetryConfig{
				Backoff:  DefaultRetryBackoff,
				Delay:    DefaultRetryDelay,
				MaxDelay: DefaultRetryMaxDelay,
				Attempts: DefaultRetryAttempts,
			},
		},
		Engine: EngineConfig{
			Host: "",
		},
		Build: BuildConfig{
			Timeout: DefaultBuildTimeout,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
