package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"driveauth/auth"
	"driveauth/config"
)

var (
	configPath      string
	credentialsPath string
	tokenStore      string
	noBrowser       bool
	verbose         bool
	quiet           bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "driveauth",
	Short: "Google Drive OAuth authenticator",
	Long: `Authorize access to Google Drive with an OAuth client secrets file.

Tokens are cached under .drive_credentials/ and refreshed silently, so the
browser consent flow only runs when no usable token is cached.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file (default driveauth.toml)")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "Path to Google OAuth client secrets")
	rootCmd.PersistentFlags().StringVar(&tokenStore, "token-store", "", "Token cache backend: file or sqlite")
	rootCmd.PersistentFlags().BoolVar(&noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logoutCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	resolved, err := config.Resolve(config.ReadEnvOverrides(), config.CLIOverrides{
		ConfigPath:       configPath,
		ClientSecretFile: credentialsPath,
		TokenStore:       tokenStore,
		NoBrowser:        noBrowser,
	})
	if err != nil {
		return err
	}

	cfg = resolved
	logger = buildLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return nil
}

// buildLogger uses the configured level unless --verbose or --quiet is set.
func buildLogger(w io.Writer, configured string) *slog.Logger {
	level := slog.LevelInfo
	switch configured {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newAuthenticator() *auth.DriveAuthenticator {
	opts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithTokenStore(cfg.TokenStore),
	}
	if !cfg.OpenBrowser {
		opts = append(opts, auth.WithBrowser(auth.NoBrowser))
	}

	return auth.NewDriveAuthenticator(cfg.ClientSecretFile, auth.NewGoogleOAuth(opts...))
}

func driveTokenKey() string {
	return auth.TokenKey(auth.Request{ServiceName: auth.ServiceName, Version: auth.APIVersion})
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
