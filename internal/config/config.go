package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"CONTEXTCAT_API_KEY"`

	// Document source: a local vault directory or the host's REST API.
	VaultDir       string        `env:"VAULT_DIR"`
	HostAPIURL     string        `env:"HOST_API_URL"`
	HostAPIKey     string        `env:"HOST_API_KEY"`
	HostAPITimeout time.Duration `env:"HOST_API_TIMEOUT" envDefault:"30s"`

	// Persisted source selection
	SettingsFile string `env:"SETTINGS_FILE"`

	// Aggregation
	DefaultMode        string `env:"DEFAULT_MODE" envDefault:"replace"`
	MaxConcurrentReads int    `env:"MAX_CONCURRENT_READS" envDefault:"8"`

	// Run queue
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// Watcher
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"500ms"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.HostAPITimeout <= 0 {
		cfg.HostAPITimeout = 30 * time.Second
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = "replace"
	}
	if cfg.MaxConcurrentReads <= 0 {
		cfg.MaxConcurrentReads = 8
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = DefaultSettingsFile(cfg.VaultDir)
	}

	return cfg, nil
}

// DefaultSettingsFile is the settings location for a vault directory.
func DefaultSettingsFile(vaultDir string) string {
	if vaultDir == "" {
		return "contextcat.toml"
	}
	return filepath.Join(vaultDir, ".contextcat.toml")
}

// Validate checks what every entry point needs: exactly one document source
// and a known mode.
func (c Config) Validate() error {
	if c.VaultDir == "" && c.HostAPIURL == "" {
		return errors.New("one of VAULT_DIR or HOST_API_URL is required")
	}
	if c.VaultDir != "" && c.HostAPIURL != "" {
		return errors.New("VAULT_DIR and HOST_API_URL are mutually exclusive")
	}
	if c.DefaultMode != "replace" && c.DefaultMode != "splice" {
		return fmt.Errorf("DEFAULT_MODE must be replace or splice, got %q", c.DefaultMode)
	}
	return nil
}

// ValidateServer adds the checks for the HTTP service.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return errors.New("CONTEXTCAT_API_KEY is required")
	}
	return nil
}
