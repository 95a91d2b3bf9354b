// Package config loads the synchronizer's configuration from a yaml or
// json file, with environment-variable overrides (optionally via a .env
// file) for deployment settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the sync and query service.
type Config struct {
	DB   DBConfig   `json:"db" yaml:"db"`
	API  APIConfig  `json:"api" yaml:"api"`
	Sync SyncConfig `json:"sync" yaml:"sync"`
}

// DBConfig locates the SQLite store.
type DBConfig struct {
	Path string `json:"path" yaml:"path"`
}

// APIConfig describes the remote MAS datastore resource.
type APIConfig struct {
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	ResourceID string `json:"resource_id" yaml:"resource_id"`
	TimeoutSec int    `json:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the API timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// SyncConfig tunes the catch-up orchestrator.
type SyncConfig struct {
	PageSize    int `json:"page_size" yaml:"page_size"`
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	BackoffMS   int `json:"backoff_ms" yaml:"backoff_ms"`
}

// Backoff returns the initial retry backoff as a duration.
func (s SyncConfig) Backoff() time.Duration {
	return time.Duration(s.BackoffMS) * time.Millisecond
}

// Default returns a configuration with sensible defaults. The endpoint and
// resource ID default inside the mas client; leaving them empty is valid.
func Default() *Config {
	return &Config{
		DB: DBConfig{Path: "./sora.db"},
		API: APIConfig{
			TimeoutSec: 30,
		},
		Sync: SyncConfig{
			PageSize:    100,
			MaxAttempts: 3,
			BackoffMS:   500,
		},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON) on top of the
// defaults, then applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the default configuration with environment overrides
// applied, loading a .env file first when one is present.
func FromEnv() (*Config, error) {
	_ = godotenv.Load() // a missing .env file is fine

	cfg := Default()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SORA_DB_PATH"); v != "" {
		c.DB.Path = v
	}
	if v := os.Getenv("SORA_API_ENDPOINT"); v != "" {
		c.API.Endpoint = v
	}
	if v := os.Getenv("SORA_RESOURCE_ID"); v != "" {
		c.API.ResourceID = v
	}
	if v := os.Getenv("SORA_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sync.PageSize = n
		}
	}
}

// SaveToFile writes the configuration out as YAML or JSON based on the
// file extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	if c.API.TimeoutSec <= 0 {
		return fmt.Errorf("api.timeout_sec must be positive")
	}
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive")
	}
	if c.Sync.MaxAttempts <= 0 {
		return fmt.Errorf("sync.max_attempts must be positive")
	}
	if c.Sync.BackoffMS < 0 {
		return fmt.Errorf("sync.backoff_ms must not be negative")
	}
	return nil
}
