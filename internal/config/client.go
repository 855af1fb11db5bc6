package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig configures the storefront client: where the backend
// lives, where the session token is persisted, and the request timeout.
type ClientConfig struct {
	BaseURL        string `yaml:"base_url"`
	TokenPath      string `yaml:"token_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultClientConfigPath is the conventional client config location.
func DefaultClientConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "shopfront", "config.yaml")
}

// LoadClient reads a YAML config file and applies env overrides. A
// missing file yields the defaults; env always wins over the file.
func LoadClient(path string) (ClientConfig, error) {
	cfg := ClientConfig{
		BaseURL:        "http://localhost:8000",
		TimeoutSeconds: 15,
	}

	if path == "" {
		path = DefaultClientConfigPath()
	}
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return ClientConfig{}, fmt.Errorf("parse client config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return ClientConfig{}, fmt.Errorf("read client config: %w", err)
	}

	if v := os.Getenv("SHOPFRONT_API_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("SHOPFRONT_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	if seconds := envDuration("SHOPFRONT_TIMEOUT_SECONDS", 0); seconds > 0 {
		cfg.TimeoutSeconds = int(seconds / time.Second)
	}
	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
