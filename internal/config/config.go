// Package config reads dtrace settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// DefaultDBFile is the database location relative to the user's home
// directory when DTRACE_DB is unset.
const DefaultDBFile = ".local/share/decision-trace/traces.db"

// Config holds process-wide settings.
type Config struct {
	DBPath   string     `env:"DTRACE_DB"`
	LogLevel slog.Level `env:"DTRACE_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment. An unset DTRACE_DB resolves to DefaultDBFile
// under the home directory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		path, err := DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = path
	}
	return cfg, nil
}

// DefaultDBPath returns the default database path for the current user.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDBFile), nil
}

// EnsureDir creates the directory that will hold the database file.
func (c Config) EnsureDir() error {
	dir := filepath.Dir(c.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
