// Package pocket holds the Pocket OAuth launch URLs. Pocket has no share or
// payment channel; authentication is the whole protocol
package pocket

import (
	"fmt"
	"strings"
)

// SchemePrefix tags Pocket re-entry URLs
const SchemePrefix = "pocketapp"

// RedirectScheme derives the host's re-entry scheme from the consumer key:
// the digits before the first dash name the registered app
func RedirectScheme(appID string) string {
	prefix, _, _ := strings.Cut(appID, "-")
	return SchemePrefix + prefix
}

// RedirectURL is the callback the authorize pages bounce to
func RedirectURL(appID string) string {
	return RedirectScheme(appID) + ":authorizationFinished"
}

// AppAuthURL opens the installed app's authorize screen
func AppAuthURL(requestToken, redirectURL string) string {
	return fmt.Sprintf(
		"pocket-oauth-v1:///authorize?request_token=%s&redirect_uri=%s",
		requestToken, redirectURL,
	)
}

// WebAuthURL is the browser authorize page used when the app is absent
func WebAuthURL(requestToken, redirectURL string) string {
	return fmt.Sprintf(
		"https://getpocket.com/auth/authorize?request_token=%s&redirect_uri=%s",
		requestToken, redirectURL,
	)
}

// Request/authorize REST endpoints
const (
	// RequestTokenURL issues a request token for the consumer key
	RequestTokenURL = "https://getpocket.com/v3/oauth/request"
	// AuthorizeTokenURL trades an approved request token for an access token
	AuthorizeTokenURL = "https://getpocket.com/v3/oauth/authorize"
)
