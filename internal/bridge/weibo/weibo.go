// Package weibo encodes the Weibo inter-app protocol (keyed-archive
// pasteboard items plus a correlation-id scheme launch) and its web REST
// fallback for both sharing and OAuth
package weibo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// Wire constants; literal values are vendor contract
const (
	// SchemePrefix tags Weibo re-entry URLs
	SchemePrefix = "wb"
	// TransferObjectType is the pasteboard item key carrying the archived
	// request or response object
	TransferObjectType = "transferObject"

	sdkVersion = "003013000"

	// UpdateStatusURL posts a text status over the web REST fallback
	UpdateStatusURL = "https://api.weibo.com/2/statuses/update.json"
	// UploadStatusURL posts a status with an attached image
	UploadStatusURL = "https://upload.api.weibo.com/2/statuses/upload.json"
	// AccessTokenURL exchanges an OAuth code for an access token
	AccessTokenURL = "https://api.weibo.com/oauth2/access_token"
)

// EncodeAppShare builds the ordered pasteboard item list and scheme URL for
// an app-based share. Text, image, and link media are supported; image bytes
// must be present
func EncodeAppShare(appID string, host domain.HostInfo, m domain.WeiboMessage) (schemeURL string, items []map[string][]byte, err error) {
	info := m.Info

	message := map[string]any{"__class": "WBMessageObject"}
	text := info.Description

	switch media := info.Media.(type) {
	case nil:
		message["text"] = text
	case domain.MediaURL:
		// the app rejects a webpage object without thumbnail bytes; fall
		// back to plain text with the link appended
		if len(info.Thumbnail) == 0 {
			if text == "" {
				message["text"] = media.URL
			} else {
				message["text"] = text + " " + media.URL
			}
			break
		}
		message["text"] = text
		message["mediaObject"] = map[string]any{
			"__class":       "WBWebpageObject",
			"objectID":      "identifier1",
			"webpageUrl":    media.URL,
			"title":         info.Title,
			"thumbnailData": info.Thumbnail,
		}
	case domain.MediaImage:
		if len(media.Data) == 0 {
			return "", nil, perr.InvalidMediaf("image share has no image data")
		}
		message["text"] = text
		message["imageObject"] = map[string]any{"imageData": media.Data}
	default:
		return "", nil, perr.NotDeliverablef("weibo does not support this media kind")
	}

	id := uuid.NewString()
	transfer, err := archive.ArchiveDict(map[string]any{
		"__class":   "WBSendMessageToWeiboRequest",
		"message":   message,
		"requestID": id,
	})
	if err != nil {
		return "", nil, err
	}
	app, err := archive.ArchiveDict(map[string]any{
		"appKey":   appID,
		"bundleID": host.BundleID,
	})
	if err != nil {
		return "", nil, err
	}

	items = []map[string][]byte{
		{TransferObjectType: transfer},
		{"app": app},
	}
	return fmt.Sprintf("weibosdk://request?id=%s&sdkversion=%s", id, sdkVersion), items, nil
}

// EncodeAppAuth builds the pasteboard item list and scheme URL for app-based
// OAuth
func EncodeAppAuth(appID string, host domain.HostInfo, redirectURL, scope string) (schemeURL string, items []map[string][]byte, err error) {
	id := uuid.NewString()
	transfer, err := archive.ArchiveDict(map[string]any{
		"__class":     "WBAuthorizeRequest",
		"redirectURI": redirectURL,
		"requestID":   id,
		"scope":       scope,
	})
	if err != nil {
		return "", nil, err
	}
	userInfo, err := archive.ArchiveDict(map[string]any{
		"mykey":    "as you like",
		"SSO_From": "SendMessageToWeiboViewController",
	})
	if err != nil {
		return "", nil, err
	}
	app, err := archive.ArchiveDict(map[string]any{
		"appKey":   appID,
		"bundleID": host.BundleID,
		"name":     host.Name,
	})
	if err != nil {
		return "", nil, err
	}

	items = []map[string][]byte{
		{TransferObjectType: transfer},
		{"userInfo": userInfo},
		{"app": app},
	}
	return fmt.Sprintf("weibosdk://request?id=%s&sdkversion=%s", id, sdkVersion), items, nil
}

// WebAuthURL is the browser authorization page used when the app is absent
func WebAuthURL(appID, redirectURL, scope string) string {
	return fmt.Sprintf(
		"https://open.weibo.cn/oauth2/authorize?client_id=%s&response_type=code&redirect_uri=%s&scope=%s",
		appID, redirectURL, scope,
	)
}

// TokenExchangeForm builds the code-for-token exchange parameters
func TokenExchangeForm(appID, appKey, redirectURL, code string) map[string]string {
	return map[string]string{
		"client_id":     appID,
		"client_secret": appKey,
		"grant_type":    "authorization_code",
		"redirect_uri":  redirectURL,
		"code":          code,
	}
}

// StatusParams builds the REST share parameters and picks the endpoint: a
// present image switches to the multipart upload endpoint with a pic part
func StatusParams(m domain.WeiboMessage) (endpoint string, params map[string]string, pic []byte, err error) {
	info := m.Info
	parts := []string{}
	if info.Title != "" {
		parts = append(parts, info.Title)
	}
	if info.Description != "" {
		parts = append(parts, info.Description)
	}

	switch media := info.Media.(type) {
	case nil:
	case domain.MediaURL:
		parts = append(parts, media.URL)
	case domain.MediaImage:
		if len(media.Data) == 0 {
			return "", nil, nil, perr.InvalidMediaf("image share has no image data")
		}
		pic = media.Data
	default:
		return "", nil, nil, perr.NotDeliverablef("weibo does not support this media kind")
	}

	params = map[string]string{
		"status":       strings.Join(parts, " "),
		"access_token": m.AccessToken,
	}
	if pic != nil {
		return UploadStatusURL, params, pic, nil
	}
	return UpdateStatusURL, params, nil, nil
}

// invalidTokenCodes are the REST error codes that mean the access token is
// expired or revoked rather than the request being malformed
var invalidTokenCodes = map[int]struct{}{
	21314: {}, 21315: {}, 21316: {}, 21317: {}, 21327: {}, 21332: {},
}

// ClassifyRESTResponse maps a REST share response body to an outcome: a
// present idstr is success, a recognized error_code is an invalid-token
// failure, anything else is a remote API failure
func ClassifyRESTResponse(body map[string]any) error {
	if _, ok := body["idstr"]; ok {
		return nil
	}
	if code, ok := numericField(body, "error_code"); ok {
		if _, invalid := invalidTokenCodes[code]; invalid {
			return perr.WithPayload(perr.InvalidTokenf("weibo access token rejected (%d)", code), body)
		}
		return perr.WithPayload(perr.RemoteAPIf("weibo share failed (%d)", code), body)
	}
	return perr.WithPayload(perr.RemoteAPIf("weibo share failed"), body)
}

// ParseTransferObject unarchives the pasteboard response after app re-entry
// and classifies it by __class: share responses and OAuth responses travel
// on the same channel
func ParseTransferObject(payload []byte) (class string, dict map[string]any, err error) {
	dict, err = archive.UnarchiveDict(payload)
	if err != nil {
		return "", nil, err
	}
	class, _ = dict["__class"].(string)
	return class, dict, nil
}

// StatusCode extracts the numeric statusCode field; zero means success
func StatusCode(dict map[string]any) (int, bool) {
	return numericField(dict, "statusCode")
}

func numericField(dict map[string]any, key string) (int, bool) {
	switch n := dict[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
