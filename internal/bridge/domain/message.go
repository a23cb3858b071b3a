package domain

// Media is the sealed media payload sum. Not every vendor supports every
// kind; an unsupported (vendor, media) pair is a hard failure at dispatch,
// never a silent downgrade
type Media interface{ isMedia() }

// MediaURL shares a web link
type MediaURL struct{ URL string }

// MediaImage shares inline image bytes (already encoded, e.g. JPEG)
type MediaImage struct{ Data []byte }

// MediaAudio shares an audio stream URL with an optional landing link
type MediaAudio struct {
	URL     string
	LinkURL string
}

// MediaVideo shares a video link
type MediaVideo struct{ URL string }

// MediaFile shares opaque file bytes
type MediaFile struct{ Data []byte }

func (MediaURL) isMedia()   {}
func (MediaImage) isMedia() {}
func (MediaAudio) isMedia() {}
func (MediaVideo) isMedia() {}
func (MediaFile) isMedia()  {}

// Info is the shared payload tuple: all fields optional, Thumbnail holds
// pre-encoded image bytes (thumbnail re-encoding is the host's concern)
type Info struct {
	Title       string
	Description string
	Thumbnail   []byte
	Media       Media
}

// WeChatScene selects the WeChat destination variant
type WeChatScene string

// WeChat destination scene codes (wire values)
const (
	WeChatSession  WeChatScene = "0"
	WeChatTimeline WeChatScene = "1"
	WeChatFavorite WeChatScene = "2"
)

// QQScene selects the QQ destination variant
type QQScene int

// QQ destination cflag codes (wire values)
const (
	QQFriends   QQScene = 0x00
	QQZone      QQScene = 0x01
	QQFavorites QQScene = 0x08
	QQDataline  QQScene = 0x10
)

// AlipayScene selects the Alipay destination variant
type AlipayScene int

// Alipay destination scene codes (wire values)
const (
	AlipayFriends  AlipayScene = 0
	AlipayTimeline AlipayScene = 1
)

// Message is the sealed outbound share sum: one concrete type per vendor,
// each carrying that vendor's destination variant and Info
type Message interface {
	isMessage()
	// MessageVendor returns the vendor tag the message dispatches to
	MessageVendor() Vendor
	// MessageInfo returns the shared payload tuple
	MessageInfo() Info
}

// WeChatMessage shares into a WeChat scene
type WeChatMessage struct {
	Scene WeChatScene
	Info  Info
}

// QQMessage shares into a QQ scene
type QQMessage struct {
	Scene QQScene
	Info  Info
}

// WeiboMessage shares to the Weibo timeline. AccessToken is required for the
// web fallback path only
type WeiboMessage struct {
	Info        Info
	AccessToken string
}

// AlipayMessage shares into an Alipay scene
type AlipayMessage struct {
	Scene AlipayScene
	Info  Info
}

// TwitterMessage posts a status via the signed REST API
type TwitterMessage struct {
	Info              Info
	MediaIDs          []string
	AccessToken       string
	AccessTokenSecret string
}

func (WeChatMessage) isMessage()  {}
func (QQMessage) isMessage()      {}
func (WeiboMessage) isMessage()   {}
func (AlipayMessage) isMessage()  {}
func (TwitterMessage) isMessage() {}

// MessageVendor implements Message
func (WeChatMessage) MessageVendor() Vendor { return VendorWeChat }

// MessageVendor implements Message
func (QQMessage) MessageVendor() Vendor { return VendorQQ }

// MessageVendor implements Message
func (WeiboMessage) MessageVendor() Vendor { return VendorWeibo }

// MessageVendor implements Message
func (AlipayMessage) MessageVendor() Vendor { return VendorAlipay }

// MessageVendor implements Message
func (TwitterMessage) MessageVendor() Vendor { return VendorTwitter }

// MessageInfo implements Message
func (m WeChatMessage) MessageInfo() Info { return m.Info }

// MessageInfo implements Message
func (m QQMessage) MessageInfo() Info { return m.Info }

// MessageInfo implements Message
func (m WeiboMessage) MessageInfo() Info { return m.Info }

// MessageInfo implements Message
func (m AlipayMessage) MessageInfo() Info { return m.Info }

// MessageInfo implements Message
func (m TwitterMessage) MessageInfo() Info { return m.Info }

// Order is the sealed payment request sum. The order string is pre-built by
// the vendor's server SDK and opaque to the bridge
type Order interface {
	isOrder()
	// OrderVendor returns the vendor tag the order dispatches to
	OrderVendor() Vendor
}

// AlipayOrder launches Alipay with a pre-built order URL. Scheme optionally
// overrides the default "ap"+appID re-entry scheme (white-labeled hosts)
type AlipayOrder struct {
	OrderURL string
	Scheme   string
}

// WeChatOrder launches WeChat pay with a pre-built order URL
type WeChatOrder struct {
	OrderURL string
}

func (AlipayOrder) isOrder() {}
func (WeChatOrder) isOrder() {}

// OrderVendor implements Order
func (AlipayOrder) OrderVendor() Vendor { return VendorAlipay }

// OrderVendor implements Order
func (WeChatOrder) OrderVendor() Vendor { return VendorWeChat }
