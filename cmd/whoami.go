package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the Google account the cached token belongs to",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client, err := newAuthenticator().Authenticate(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	about, err := client.Drive.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to fetch account info: %w", err)
	}
	if about.User == nil {
		return errors.New("account info response has no user")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:  %s\n", about.User.DisplayName)
	fmt.Fprintf(out, "Email: %s\n", about.User.EmailAddress)
	return nil
}
