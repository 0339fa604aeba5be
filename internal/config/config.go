package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig carries everything the server needs at startup. Values come from
// an optional YAML file (CONFIG_FILE) overridden by environment variables.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	HealthAddr string `yaml:"health_addr"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	// GraceSeconds is how long a finished session stays in the active table
	// before eviction, so late duplicate requests still resolve as finished.
	GraceSeconds int `yaml:"grace_seconds"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":8080",
		HealthAddr:   ":8081",
		GraceSeconds: 60,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("HEALTH_ADDR")); v != "" {
		cfg.HealthAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GRACE_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GraceSeconds = n
		}
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("LISTEN_ADDR is required")
	}
	return cfg, nil
}

// GracePeriod returns GraceSeconds as a duration.
func (c *AppConfig) GracePeriod() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}
