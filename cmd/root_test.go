package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"driveauth/auth"
	"driveauth/config"
	"driveauth/models"
	"driveauth/storage"
)

// execute runs the root command in a clean working directory with flag
// state reset, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	configPath, credentialsPath, tokenStore = "", "", ""
	noBrowser, verbose, quiet, logoutForce = false, false, false, false
	for _, env := range []string{config.EnvConfig, config.EnvClientSecretFile, config.EnvTokenStore, config.EnvLogLevel} {
		t.Setenv(env, "")
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func seedToken(t *testing.T, kind string) {
	t.Helper()

	store, err := storage.Open(kind, auth.CredentialsDir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), &models.CachedToken{
		Key: driveTokenKey(),
		Token: &oauth2.Token{
			AccessToken:  "a",
			RefreshToken: "r",
			Expiry:       time.Now().Add(time.Hour),
		},
		Scopes:    auth.Scopes(),
		UpdatedAt: time.Now(),
	}))
}

func loadSeeded(t *testing.T, kind string) *models.CachedToken {
	t.Helper()

	store, err := storage.Open(kind, auth.CredentialsDir)
	require.NoError(t, err)
	defer store.Close()

	tok, err := store.Load(context.Background(), driveTokenKey())
	require.NoError(t, err)
	return tok
}

func TestStatus_NoToken(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No cached token")
}

func TestStatus_CachedToken(t *testing.T) {
	t.Chdir(t.TempDir())
	seedToken(t, storage.KindSQLite)

	out, err := execute(t, "", "status", "--token-store", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "drive_v3")
	assert.Contains(t, out, "Valid:     true")
	assert.Contains(t, out, "https://www.googleapis.com/auth/drive.activity")
	assert.NotContains(t, out, "WARNING")
}

func TestLogout_Force(t *testing.T) {
	t.Chdir(t.TempDir())
	seedToken(t, storage.KindFile)

	out, err := execute(t, "", "logout", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")
	assert.Nil(t, loadSeeded(t, storage.KindFile))
}

func TestLogout_ConfirmationDeclined(t *testing.T) {
	t.Chdir(t.TempDir())
	seedToken(t, storage.KindFile)

	_, err := execute(t, "no\n", "logout")
	require.NoError(t, err)
	assert.NotNil(t, loadSeeded(t, storage.KindFile))
}

func TestLogout_ConfirmationAccepted(t *testing.T) {
	t.Chdir(t.TempDir())
	seedToken(t, storage.KindFile)

	_, err := execute(t, "yes\n", "logout")
	require.NoError(t, err)
	assert.Nil(t, loadSeeded(t, storage.KindFile))
}

func TestReadOnlyCommands_LeaveEmptySQLiteStoreUntouched(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"status", []string{"status", "--token-store", "sqlite"}, "No cached token"},
		{"logout", []string{"logout", "--force", "--token-store", "sqlite"}, "Logged out."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			out, err := execute(t, "", tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)

			_, err = os.Stat(auth.CredentialsDir)
			assert.True(t, os.IsNotExist(err), "credentials directory must not be created")
		})
	}
}

func TestLogout_SQLiteStore(t *testing.T) {
	t.Chdir(t.TempDir())
	seedToken(t, storage.KindSQLite)

	_, err := execute(t, "", "logout", "--force", "--token-store", "sqlite")
	require.NoError(t, err)
	assert.Nil(t, loadSeeded(t, storage.KindSQLite))
}

func TestAuth_NoCredentials(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "", "auth")
	assert.ErrorIs(t, err, auth.ErrInvalidConfiguration)
}

func TestAuth_MissingCredentialsFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "", "auth", "missing.json")
	assert.ErrorIs(t, err, auth.ErrResourceNotFound)
}

func TestRoot_InvalidTokenStore(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "", "status", "--token-store", "redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_store")
}

func TestBuildLogger_Levels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	verbose, quiet = false, false
	assert.False(t, buildLogger(&buf, "info").Enabled(ctx, slog.LevelDebug))
	assert.True(t, buildLogger(&buf, "debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, buildLogger(&buf, "warn").Enabled(ctx, slog.LevelInfo))

	verbose = true
	assert.True(t, buildLogger(&buf, "error").Enabled(ctx, slog.LevelDebug))

	verbose, quiet = false, true
	assert.False(t, buildLogger(&buf, "debug").Enabled(ctx, slog.LevelWarn))
	quiet = false
}
