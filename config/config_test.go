package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "driveauth.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "file", cfg.TokenStore)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.OpenBrowser)
	assert.Empty(t, cfg.ClientSecretFile)
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	err := Validate(&Config{TokenStore: "redis", LogLevel: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_store")
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
client_secret_file = "secrets.json"
token_store = "sqlite"
log_level = "debug"
open_browser = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secrets.json", cfg.ClientSecretFile)
	assert.Equal(t, "sqlite", cfg.TokenStore)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.OpenBrowser)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `client_secret_file = "secrets.json"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.TokenStore)
	assert.True(t, cfg.OpenBrowser)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `client_secrets_file = "typo.json"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys")
	assert.Contains(t, err.Error(), "client_secrets_file")
}

func TestLoad_InvalidValue(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `token_store = "redis"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `client_secret_file = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_Precedence(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
client_secret_file = "from-file.json"
token_store = "sqlite"
log_level = "warn"
`)

	cfg, err := Resolve(
		EnvOverrides{ConfigPath: path, ClientSecretFile: "from-env.json", LogLevel: "error"},
		CLIOverrides{ClientSecretFile: "from-cli.json", NoBrowser: true},
	)
	require.NoError(t, err)
	assert.Equal(t, "from-cli.json", cfg.ClientSecretFile)
	assert.Equal(t, "sqlite", cfg.TokenStore)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.OpenBrowser)
}

func TestResolve_CLIConfigPathBeatsEnv(t *testing.T) {
	dir := t.TempDir()
	cliPath := writeConfig(t, dir, `client_secret_file = "cli.json"`)

	cfg, err := Resolve(
		EnvOverrides{ConfigPath: filepath.Join(dir, "does-not-exist.toml")},
		CLIOverrides{ConfigPath: cliPath},
	)
	require.NoError(t, err)
	assert.Equal(t, "cli.json", cfg.ClientSecretFile)
}

func TestResolve_ExplicitMissingConfigFails(t *testing.T) {
	_, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestResolve_NoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Resolve(EnvOverrides{}, CLIOverrides{TokenStore: "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.TokenStore)
	assert.True(t, cfg.OpenBrowser)
}

func TestResolve_InvalidOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Resolve(EnvOverrides{TokenStore: "redis"}, CLIOverrides{})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DRIVEAUTH_CLIENT_SECRET_FILE=dotenv.json\n"), 0o600))

	t.Setenv(EnvClientSecretFile, "")
	require.NoError(t, os.Unsetenv(EnvClientSecretFile))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "dotenv.json", ReadEnvOverrides().ClientSecretFile)
}

func TestLoadDotEnv_ExistingVariableWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DRIVEAUTH_TOKEN_STORE=sqlite\n"), 0o600))

	t.Setenv(EnvTokenStore, "file")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "file", ReadEnvOverrides().TokenStore)
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
