package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

var ErrBrowserDisabled = errors.New("auth: browser launch disabled")

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// NoBrowser never opens anything, so the consent URL is only printed.
func NoBrowser(string) error {
	return ErrBrowserDisabled
}

// launchBrowser opens the consent URL, printing it to stderr when that fails
// so the user can open it by hand.
func (g *GoogleOAuth) launchBrowser(authURL string) {
	g.logger.Info("opening browser for authorization")

	if err := g.openURL(authURL); err != nil {
		g.logger.Warn("failed to open browser, printing URL", slog.String("error", err.Error()))
		fmt.Fprintf(g.stderr, "Open this URL in your browser:\n%s\n", authURL)
	}
}
