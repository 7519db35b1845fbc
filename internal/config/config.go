// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string
}

// Load reads configuration from environment variables.
//
// DATABASE_URL accepts either a bare file path or a sqlite:// URL; it
// defaults to a local SQLite file. PORT defaults to 5000, matching the
// voice-platform gateway convention.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "5000"),
		DBPath: sqlitePath(getEnv("DATABASE_URL", "./data/memory_skill.db")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	return nil
}

// sqlitePath extracts the file path from a sqlite connection URL. Bare
// paths pass through unchanged.
func sqlitePath(u string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "sqlite:"} {
		if rest, ok := strings.CutPrefix(u, prefix); ok {
			return rest
		}
	}
	return u
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
