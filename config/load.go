package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// CLIOverrides holds values from command-line flags. Empty means unset.
type CLIOverrides struct {
	ConfigPath       string
	ClientSecretFile string
	TokenStore       string
	LogLevel         string
	NoBrowser        bool
}

// Load reads and validates a TOML config file. Unknown keys are errors so a
// typo does not silently fall back to a default.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve applies defaults -> config file -> environment -> CLI flags and
// validates the result.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigPath
	explicit := false
	if env.ConfigPath != "" {
		cfgPath, explicit = env.ConfigPath, true
	}
	if cli.ConfigPath != "" {
		cfgPath, explicit = cli.ConfigPath, true
	}

	var (
		cfg *Config
		err error
	)
	if explicit {
		cfg, err = Load(cfgPath)
	} else {
		cfg, err = LoadOrDefault(cfgPath)
	}
	if err != nil {
		return nil, err
	}

	override(&cfg.ClientSecretFile, env.ClientSecretFile, cli.ClientSecretFile)
	override(&cfg.TokenStore, env.TokenStore, cli.TokenStore)
	override(&cfg.LogLevel, env.LogLevel, cli.LogLevel)
	if cli.NoBrowser {
		cfg.OpenBrowser = false
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// override sets *dst to the last non-empty value.
func override(dst *string, values ...string) {
	for _, v := range values {
		if v != "" {
			*dst = v
		}
	}
}
