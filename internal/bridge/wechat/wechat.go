// Package wechat encodes and decodes the WeChat inter-app protocol: a flat
// plist dictionary on the shared pasteboard plus a scheme launch, with
// OAuth and payment re-entry over wx-prefixed scheme URLs
package wechat

import (
	"fmt"
	"strconv"

	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// Wire constants; literal values are vendor contract
const (
	// PasteboardType is the fixed pasteboard type WeChat reads and writes
	PasteboardType = "content"
	// SchemePrefix tags all WeChat re-entry URLs
	SchemePrefix = "wx"

	sdkVersion   = "1.5"
	commandShare = "1010"
	commandText  = "1020"

	// ThumbnailCeiling is the largest thumbnail payload WeChat accepts
	ThumbnailCeiling = 31500
)

// Media type codes for the pasteboard dictionary
const (
	objectTypeImage = "2"
	objectTypeAudio = "3"
	objectTypeVideo = "4"
	objectTypeURL   = "5"
)

// EncodeShare builds the pasteboard payload and scheme URL for a share.
// Opaque files are not supported by this vendor: hard failure, no downgrade
func EncodeShare(appID string, m domain.WeChatMessage) (schemeURL string, payload []byte, err error) {
	info := m.Info
	dict := map[string]any{
		"result":        "1",
		"returnFromApp": "0",
		"scene":         string(m.Scene),
		"sdkver":        sdkVersion,
		"command":       commandShare,
	}
	if info.Title != "" {
		dict["title"] = info.Title
	}
	if info.Description != "" {
		dict["description"] = info.Description
	}
	if len(info.Thumbnail) > 0 {
		if len(info.Thumbnail) > ThumbnailCeiling {
			return "", nil, perr.InvalidMediaf("thumbnail exceeds %d bytes", ThumbnailCeiling)
		}
		dict["thumbData"] = info.Thumbnail
	}

	switch media := info.Media.(type) {
	case nil:
		dict["command"] = commandText
	case domain.MediaURL:
		dict["objectType"] = objectTypeURL
		dict["mediaUrl"] = media.URL
	case domain.MediaImage:
		if len(media.Data) == 0 {
			return "", nil, perr.InvalidMediaf("image share has no image data")
		}
		dict["objectType"] = objectTypeImage
		dict["fileData"] = media.Data
	case domain.MediaAudio:
		dict["objectType"] = objectTypeAudio
		if media.LinkURL != "" {
			dict["mediaUrl"] = media.LinkURL
		}
		dict["mediaDataUrl"] = media.URL
	case domain.MediaVideo:
		dict["objectType"] = objectTypeVideo
		dict["mediaUrl"] = media.URL
	case domain.MediaFile:
		return "", nil, perr.NotDeliverablef("wechat does not support file shares")
	default:
		return "", nil, perr.NotDeliverablef("wechat does not support this media kind")
	}

	payload, err = archive.MarshalBinary(map[string]any{appID: dict})
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("weixin://app/%s/sendreq/?", appID), payload, nil
}

// ParseShareResult reads the share outcome WeChat wrote back to the
// pasteboard. handled is false when the payload has no entry for appID
func ParseShareResult(payload []byte, appID string) (ok, handled bool) {
	dict, err := archive.UnmarshalDict(payload)
	if err != nil {
		return false, false
	}
	entry, found := dict[appID].(map[string]any)
	if !found {
		return false, false
	}
	result, found := entry["result"].(string)
	if !found {
		return false, false
	}
	code, err := strconv.Atoi(result)
	if err != nil {
		return false, false
	}
	return code == 0, true
}

// AuthURL is the scheme URL that opens the WeChat app's OAuth screen
func AuthURL(appID, scope string) string {
	return fmt.Sprintf("weixin://app/%s/auth/?scope=%s&state=Weixinauth", appID, scope)
}

// DefaultScope is used when the caller passes no OAuth scope
const DefaultScope = "snsapi_userinfo"

// MobileCheckURL starts the SMS OAuth fallback when the app is absent
func MobileCheckURL(appID string) string {
	return fmt.Sprintf("https://open.weixin.qq.com/connect/mobilecheck?appid=%s&uid=1926559385", appID)
}

// SMSAuthURL continues the SMS OAuth flow with the m/t tokens the
// intermediate callback carries
func SMSAuthURL(appID, m, t string) string {
	return fmt.Sprintf(
		"https://open.weixin.qq.com/connect/smsauthorize?appid=%s"+
			"&redirect_uri=%s%%3A%%2F%%2Foauth&response_type=code"+
			"&scope=snsapi_message,snsapi_userinfo,snsapi_friend,snsapi_contact"+
			"&state=xxx&uid=1926559385&m=%s&t=%s",
		appID, appID, m, t,
	)
}

// AccessTokenURL exchanges an OAuth code for an access token
func AccessTokenURL(appID, appKey, code string) string {
	return fmt.Sprintf(
		"https://api.weixin.qq.com/sns/oauth2/access_token?grant_type=authorization_code&appid=%s&secret=%s&code=%s",
		appID, appKey, code,
	)
}

// ParsePayResult classifies the payment re-entry query: ret == "0" is
// success. handled is false when no ret field is present
func ParsePayResult(query map[string]string) (ok, handled bool) {
	ret, found := query["ret"]
	if !found {
		return false, false
	}
	return ret == "0", true
}
