package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"driveauth/auth"
	"driveauth/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached token",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if !storage.Exists(cfg.TokenStore, auth.CredentialsDir) {
		fmt.Fprintf(out, "No cached token. Run 'driveauth auth' to sign in.\n")
		return nil
	}

	store, err := storage.Open(cfg.TokenStore, auth.CredentialsDir)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	key := driveTokenKey()
	cached, err := store.Load(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}

	if cached == nil {
		fmt.Fprintf(out, "No cached token. Run 'driveauth auth' to sign in.\n")
		return nil
	}

	expiry := "never"
	if !cached.Token.Expiry.IsZero() {
		expiry = cached.Token.Expiry.Local().Format(time.RFC3339)
	}

	fmt.Fprintf(out, "Key:       %s\n", key)
	fmt.Fprintf(out, "Store:     %s (%s)\n", cfg.TokenStore, auth.CredentialsDir)
	fmt.Fprintf(out, "Updated:   %s\n", cached.UpdatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Expiry:    %s\n", expiry)
	fmt.Fprintf(out, "Valid:     %t\n", cached.Token.Valid())
	fmt.Fprintf(out, "Refresh:   %t\n", cached.Token.RefreshToken != "")
	fmt.Fprintf(out, "Scopes:\n  %s\n", strings.Join(cached.Scopes, "\n  "))
	if !cached.Covers(auth.Scopes()) {
		fmt.Fprintf(out, "WARNING: cached token lacks requested scopes; next auth will prompt for consent.\n")
	}

	return nil
}
