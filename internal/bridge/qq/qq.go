// Package qq encodes and decodes the QQ inter-app protocol: a query-string
// scheme URL with base64-percent-encoded fields, a keyed-archive clipboard
// payload for large media, and SSO or web OAuth
package qq

import (
	"fmt"
	"runtime"
	"strings"

	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/codec"
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// Wire constants; literal values are vendor contract
const (
	// LargeDataPasteboardType carries media payloads too big for the URL
	LargeDataPasteboardType = "com.tencent.mqq.api.apiLargeData"
	// ShareSchemePrefix tags QQ share re-entry URLs (the callback name is
	// "QQ" + hex app id, so the prefix alone identifies the vendor)
	ShareSchemePrefix = "QQ"
	// OAuthSchemePrefix tags QQ OAuth re-entry URLs
	OAuthSchemePrefix = "tencent"

	sdkVersion      = "2.9"
	fallbackAppName = "appbridge"
)

// OAuthPasteboardType is the app-id-qualified type the SSO flow exchanges
// keyed-archive payloads under
func OAuthPasteboardType(appID string) string {
	return "com.tencent.tencent" + appID
}

// EncodeShare builds the scheme URL and, for pasteboard-borne media, the
// keyed-archive payload for LargeDataPasteboardType (nil when URL-only)
func EncodeShare(appID string, host domain.HostInfo, m domain.QQMessage) (schemeURL string, largeData []byte, err error) {
	info := m.Info
	displayName := host.Name
	if displayName == "" {
		displayName = fallbackAppName
	}

	var b strings.Builder
	b.WriteString("mqqapi://share/to_fri?")
	b.WriteString("thirdAppDisplayName=" + codec.Base64(displayName))
	b.WriteString(fmt.Sprintf("&version=1&cflag=%d", int(m.Scene)))
	b.WriteString("&callback_type=scheme&generalpastboard=1")
	b.WriteString("&callback_name=" + codec.QQCallbackName(appID))
	b.WriteString("&src_type=app&shareType=0&file_type=")

	if info.Media == nil {
		// text share; Qzone wants the text in the title field
		if m.Scene == domain.QQZone {
			b.WriteString("qzone&title=")
		} else {
			b.WriteString("text&file_data=")
		}
		b.WriteString(codec.Base64PercentEncoded(info.Description))
		return b.String(), nil, nil
	}

	news := func(rawurl, fileType string) {
		if len(info.Thumbnail) > 0 {
			largeData, err = archive.ArchiveDict(map[string]any{"previewimagedata": info.Thumbnail})
		}
		b.WriteString(fileType)
		b.WriteString("&url=" + codec.Base64PercentEncoded(rawurl))
	}

	switch media := info.Media.(type) {
	case domain.MediaURL:
		news(media.URL, "news")
	case domain.MediaImage:
		if len(media.Data) == 0 {
			return "", nil, perr.InvalidMediaf("image share has no image data")
		}
		dict := map[string]any{"file_data": media.Data}
		if len(info.Thumbnail) > 0 {
			dict["previewimagedata"] = info.Thumbnail
		}
		largeData, err = archive.ArchiveDict(dict)
		b.WriteString("img")
	case domain.MediaAudio:
		news(media.URL, "audio")
	case domain.MediaVideo:
		// QQ has no dedicated video type; videos travel as news links
		news(media.URL, "news")
	case domain.MediaFile:
		largeData, err = archive.ArchiveDict(map[string]any{"file_data": media.Data})
		b.WriteString("localFile")
		if info.Description != "" {
			b.WriteString("&fileName=" + codec.PercentEncode(info.Description))
		}
	default:
		return "", nil, perr.NotDeliverablef("qq does not support this media kind")
	}
	if err != nil {
		return "", nil, err
	}

	if info.Title != "" {
		b.WriteString("&title=" + codec.Base64PercentEncoded(info.Title))
	}
	if info.Description != "" {
		b.WriteString("&objectlocation=pasteboard&description=" + codec.Base64PercentEncoded(info.Description))
	}
	b.WriteString("&sdkv=" + sdkVersion)

	return b.String(), largeData, nil
}

// ParseShareQuery classifies a QQ share re-entry: error == "0" is success.
// handled is false when the query has no error field
func ParseShareQuery(query map[string]string) (ok, handled bool) {
	code, found := query["error"]
	if !found {
		return false, false
	}
	return code == "0", true
}

// EncodeSSOAuth builds the keyed-archive pasteboard payload and scheme URL
// for app-based OAuth
func EncodeSSOAuth(appID string, host domain.HostInfo, scope string) (schemeURL string, payload []byte, err error) {
	appName := host.Name
	if appName == "" {
		appName = fallbackAppName
	}
	payload, err = archive.ArchiveDict(map[string]any{
		"app_id":         appID,
		"app_name":       appName,
		"client_id":      appID,
		"response_type":  "token",
		"scope":          scope,
		"sdkp":           "i",
		"sdkv":           sdkVersion,
		"status_machine": runtime.GOOS,
		"status_os":      runtime.GOOS,
		"status_version": runtime.GOOS,
	})
	if err != nil {
		return "", nil, err
	}
	schemeURL = fmt.Sprintf(
		"mqqOpensdkSSoLogin://SSoLogin/tencent%s/com.tencent.tencent%s?generalpastboard=1",
		appID, appID,
	)
	return schemeURL, payload, nil
}

// WebAuthURL is the browser login page used when the app is absent
func WebAuthURL(appID, scope string) string {
	return "https://xui.ptlogin2.qq.com/cgi-bin/xlogin?appid=716027609&pt_3rd_aid=209656&style=35" +
		"&s_url=http%3A%2F%2Fconnect.qq.com&refer_cgi=m_authorize" +
		"&client_id=" + appID +
		"&redirect_uri=auth%3A%2F%2Fwww.qq.com&response_type=token&scope=" + scope
}

// ParseOAuthResult decodes the keyed-archive payload QQ leaves on the
// pasteboard after SSO. cancelled distinguishes user abort from failure
func ParseOAuthResult(payload []byte) (info domain.ResponseJSON, cancelled bool, err error) {
	dict, derr := archive.UnarchiveDict(payload)
	if derr != nil {
		return nil, false, perr.Wrap(derr, perr.ErrorCodeSerialize, "qq oauth payload decode")
	}
	ret, ok := intField(dict, "ret")
	if ok && ret == 0 {
		return dict, false, nil
	}
	if flag, ok := dict["user_cancelled"].(string); ok && flag == "YES" {
		return nil, true, perr.Cancelledf("user cancelled qq oauth")
	}
	return nil, false, perr.WithPayload(perr.RemoteAPIf("qq oauth failed"), dict)
}

func intField(dict map[string]any, key string) (int, bool) {
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
