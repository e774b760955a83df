// Package config resolves driveauth settings from, in increasing precedence:
// built-in defaults, a TOML config file, the environment (including a .env
// file), and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"

	"driveauth/storage"
)

// DefaultConfigPath is read when no config path is given. It may be absent.
const DefaultConfigPath = "driveauth.toml"

var validLogLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	ClientSecretFile string `toml:"client_secret_file"`
	TokenStore       string `toml:"token_store"`
	LogLevel         string `toml:"log_level"`
	OpenBrowser      bool   `toml:"open_browser"`
}

func DefaultConfig() *Config {
	return &Config{
		TokenStore:  storage.KindFile,
		LogLevel:    "info",
		OpenBrowser: true,
	}
}

// Validate reports every invalid field at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.TokenStore != storage.KindFile && cfg.TokenStore != storage.KindSQLite {
		errs = append(errs, fmt.Errorf("token_store: must be %q or %q, got %q",
			storage.KindFile, storage.KindSQLite, cfg.TokenStore))
	}

	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level: must be one of %v, got %q", validLogLevels, cfg.LogLevel))
	}

	return errors.Join(errs...)
}
