package webauth

import (
	"os/exec"
	"runtime"
	"strings"

	perr "appbridge/internal/platform/errors"
)

// BrowserLauncher is the scheme launcher for CLI hosts: it can open web URLs
// in the system browser and reports every vendor app scheme as unreachable,
// which steers the bridge onto the web fallback paths
type BrowserLauncher struct{}

// CanOpen reports true only for plain web URLs
func (BrowserLauncher) CanOpen(rawurl string) bool {
	return strings.HasPrefix(rawurl, "http:") || strings.HasPrefix(rawurl, "https:")
}

// Open launches the platform browser opener
func (BrowserLauncher) Open(rawurl string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawurl)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawurl)
	default:
		cmd = exec.Command("xdg-open", rawurl)
	}
	if err := cmd.Start(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeSchemeUnavailable, "browser open failed")
	}
	return nil
}
