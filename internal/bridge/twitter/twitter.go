// Package twitter holds the signed REST endpoints and parameter builders for
// status posting, media upload, and three-legged OAuth1
package twitter

import (
	"strings"

	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// REST endpoints (vendor contract)
const (
	// UpdateStatusURL posts a tweet; request parameters are signed
	UpdateStatusURL = "https://api.twitter.com/1.1/statuses/update.json"
	// UploadMediaURL accepts a multipart media body; the multipart fields are
	// excluded from the signature
	UploadMediaURL = "https://upload.twitter.com/1.1/media/upload.json"
	// RequestTokenURL starts the three-legged OAuth1 dance
	RequestTokenURL = "https://api.twitter.com/oauth/request_token"
	// AuthenticateURL is the browser page the user approves the app on
	AuthenticateURL = "https://api.twitter.com/oauth/authenticate"
	// AccessTokenURL trades the verifier for the final token pair
	AccessTokenURL = "https://api.twitter.com/oauth/access_token"
)

// StatusParams builds the statuses/update parameters from a message: text
// plus a comma-joined media_ids list when media was uploaded first
func StatusParams(m domain.TwitterMessage) map[string]string {
	parts := []string{}
	if m.Info.Description != "" {
		parts = append(parts, m.Info.Description)
	}
	if link, ok := m.Info.Media.(domain.MediaURL); ok {
		parts = append(parts, link.URL)
	}
	params := map[string]string{"status": strings.Join(parts, " ")}
	if len(m.MediaIDs) > 0 {
		params["media_ids"] = strings.Join(m.MediaIDs, ",")
	}
	return params
}

// AuthorizeURL is the browser page for an issued request token
func AuthorizeURL(requestToken string) string {
	return AuthenticateURL + "?oauth_token=" + requestToken
}

// invalidTokenCodes are the API error codes that mean the token pair is
// expired or revoked
var invalidTokenCodes = map[int]struct{}{89: {}, 99: {}}

// ClassifyError maps a non-2xx API response body to an outcome. The body
// carries an errors array of {code, message} entries
func ClassifyError(body map[string]any) error {
	entries, _ := body["errors"].([]any)
	for _, entry := range entries {
		dict, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		code, ok := numericField(dict, "code")
		if !ok {
			continue
		}
		if _, invalid := invalidTokenCodes[code]; invalid {
			return perr.WithPayload(perr.InvalidTokenf("twitter token rejected (%d)", code), body)
		}
		return perr.WithPayload(perr.RemoteAPIf("twitter api error (%d)", code), body)
	}
	return perr.WithPayload(perr.RemoteAPIf("twitter api error"), body)
}

func numericField(dict map[string]any, key string) (int, bool) {
	switch n := dict[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
