// Package domain defines the vendor, account, message and order types for
// the cross-app bridge, plus the collaborator ports it is wired with
package domain

// Vendor tags one external application/service with its own wire protocol.
// The set is closed: each vendor's protocol is hand-coded by external contract
type Vendor string

// The supported vendors
const (
	VendorWeChat  Vendor = "wechat"
	VendorQQ      Vendor = "qq"
	VendorWeibo   Vendor = "weibo"
	VendorAlipay  Vendor = "alipay"
	VendorTwitter Vendor = "twitter"
	VendorPocket  Vendor = "pocket"
)

// Vendors lists every supported vendor tag
func Vendors() []Vendor {
	return []Vendor{VendorWeChat, VendorQQ, VendorWeibo, VendorAlipay, VendorTwitter, VendorPocket}
}

// ProbeURL returns the scheme URL used to detect whether the vendor's app is
// installed. The literals are vendor contract and must not be altered
func (v Vendor) ProbeURL() string {
	switch v {
	case VendorWeChat:
		return "weixin://"
	case VendorQQ:
		return "mqqapi://"
	case VendorWeibo:
		return "weibosdk://request"
	case VendorAlipay:
		return "alipayshare://"
	case VendorTwitter:
		return "twitter://"
	case VendorPocket:
		return "pocket-oauth-v1://"
	}
	return ""
}

// PayProbeURL returns the scheme URL used to detect whether the vendor's app
// can take a payment hand-off. Alipay answers payments on a different scheme
// than shares; vendors without a payment channel return ""
func (v Vendor) PayProbeURL() string {
	switch v {
	case VendorWeChat:
		return "weixin://"
	case VendorAlipay:
		return "alipay://"
	}
	return ""
}

// CanWebFallback reports whether the vendor supports a browser-based flow
// when its app is not installed
func (v Vendor) CanWebFallback() bool {
	switch v {
	case VendorWeChat, VendorQQ, VendorWeibo, VendorTwitter, VendorPocket:
		return true
	default:
		return false
	}
}

// Account identifies one configured external identity. Equality within the
// registry is (Vendor, AppID); registering a second account for the same
// vendor replaces the first
type Account struct {
	Vendor      Vendor `json:"vendor" validate:"required,oneof=wechat qq weibo alipay twitter pocket"`
	AppID       string `json:"app_id" validate:"required"`
	AppKey      string `json:"app_key,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// HostInfo carries the integrating application's display name and bundle id,
// embedded in several vendors' hand-off payloads
type HostInfo struct {
	Name     string
	BundleID string
}

// OperationKind is one of the three trackable operation families
type OperationKind uint8

// The operation kinds; at most one pending callback exists per kind
const (
	OpDeliver OperationKind = iota
	OpAuthenticate
	OpPay
)

// String implements fmt.Stringer
func (k OperationKind) String() string {
	switch k {
	case OpDeliver:
		return "deliver"
	case OpAuthenticate:
		return "authenticate"
	case OpPay:
		return "pay"
	}
	return "unknown"
}

// ResponseJSON is the loosely-typed vendor response surfaced to handlers
type ResponseJSON = map[string]any

// DeliverHandler receives the outcome of a share. err == nil means delivered;
// response carries the vendor payload when one exists
type DeliverHandler func(response ResponseJSON, err error)

// OAuthHandler receives the outcome of an authenticate flow
type OAuthHandler func(info ResponseJSON, err error)

// PayHandler receives the outcome of a payment hand-off
type PayHandler func(err error)
