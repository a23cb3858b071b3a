// Package alipay encodes the Alipay inter-app protocol: an XML plist
// keyed-archive envelope on an app-id-qualified pasteboard type plus a
// scheme launch, and the safepay payment re-entry
package alipay

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/codec"
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

// ReentrySchemePrefix tags Alipay payment re-entry URLs when the host has
// not registered a custom scheme
const ReentrySchemePrefix = "ap"

// paySuccessStatus is the ResultStatus value Alipay reports on success
const paySuccessStatus = "9000"

// RequestPasteboardType is the app-id-qualified type the share request
// envelope travels under
func RequestPasteboardType(appID string) string {
	return "com.alipay.openapi.pb.req." + appID
}

// ResponsePasteboardType is the app-id-qualified type the share response
// envelope comes back under
func ResponsePasteboardType(appID string) string {
	return "com.alipay.openapi.pb.resp." + appID
}

// EncodeShare builds the XML plist envelope and scheme URL for a share
func EncodeShare(appID string, host domain.HostInfo, m domain.AlipayMessage) (schemeURL string, payload []byte, err error) {
	envelope, err := archive.ShareEnvelope(appID, host, int(m.Scene), m.Info)
	if err != nil {
		return "", nil, err
	}
	payload, err = archive.MarshalXML(envelope)
	if err != nil {
		return "", nil, err
	}
	schemeURL = fmt.Sprintf("alipayshare://platformapi/shareService?action=sendReq&shareId=%s", appID)
	return schemeURL, payload, nil
}

// ParseShareResult reads the response envelope from the pasteboard payload.
// handled is false when the payload lacks the expected envelope shape
func ParseShareResult(payload []byte) (ok, handled bool) {
	code, found := archive.ResultCode(payload)
	if !found {
		return false, false
	}
	return code == 0, true
}

// IsPayReentry reports whether u is a safepay payment callback
func IsPayReentry(u *url.URL) bool {
	return strings.Contains(u.String(), "//safepay/")
}

// ParsePayResult decodes the safepay re-entry: the raw query is a
// percent-encoded JSON document whose memo.ResultStatus carries the outcome
func ParsePayResult(u *url.URL) error {
	decoded := codec.URLDecoded(u.RawQuery)
	var body struct {
		Memo struct {
			ResultStatus string `json:"ResultStatus"`
			Memo         string `json:"memo"`
		} `json:"memo"`
	}
	if err := json.Unmarshal([]byte(decoded), &body); err != nil {
		return perr.Wrap(err, perr.ErrorCodeSerialize, "alipay pay result decode")
	}
	if body.Memo.ResultStatus != paySuccessStatus {
		return perr.RemoteAPIf("alipay payment failed (%s)", body.Memo.ResultStatus)
	}
	return nil
}
