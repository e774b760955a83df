package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names for overrides.
const (
	EnvConfig           = "DRIVEAUTH_CONFIG"
	EnvClientSecretFile = "DRIVEAUTH_CLIENT_SECRET_FILE"
	EnvTokenStore       = "DRIVEAUTH_TOKEN_STORE"
	EnvLogLevel         = "DRIVEAUTH_LOG_LEVEL"
)

// EnvOverrides holds values read from the environment. Empty means unset.
type EnvOverrides struct {
	ConfigPath       string
	ClientSecretFile string
	TokenStore       string
	LogLevel         string
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:       os.Getenv(EnvConfig),
		ClientSecretFile: os.Getenv(EnvClientSecretFile),
		TokenStore:       os.Getenv(EnvTokenStore),
		LogLevel:         os.Getenv(EnvLogLevel),
	}
}
