package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"driveauth/auth"
	"driveauth/storage"
)

var (
	logoutForce bool
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached token",
	Long:  "Delete the cached Drive token. The next auth will prompt for consent again.",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	logoutCmd.Flags().BoolVarP(&logoutForce, "force", "f", false, "Skip confirmation prompt")
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if !logoutForce {
		fmt.Fprint(cmd.OutOrStdout(), "WARNING: Are you sure you want to remove the cached token? (yes/no): ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)

		if strings.ToLower(response) != "yes" {
			logger.Info("logout cancelled")
			return nil
		}
	}

	if !storage.Exists(cfg.TokenStore, auth.CredentialsDir) {
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	}

	store, err := storage.Open(cfg.TokenStore, auth.CredentialsDir)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), driveTokenKey()); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	logger.Info("removed cached token", "store", cfg.TokenStore)
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
