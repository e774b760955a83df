package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth [client-secrets-file]",
	Short: "Authorize access to Google Drive",
	Long: `Authorize driveauth against Google Drive.

Uses the cached token when it is still usable, refreshes it when expired, and
otherwise opens the browser for consent. The client secrets file can be given
as an argument, with --credentials, DRIVEAUTH_CLIENT_SECRET_FILE, or
client_secret_file in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	authenticator := newAuthenticator()
	if _, err := authenticator.Authenticate(cmd.Context(), path); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	logger.Info("authentication complete", "credentials", authenticator.CredentialFilePath())
	fmt.Fprintln(cmd.OutOrStdout(), "Authenticated.")
	return nil
}
