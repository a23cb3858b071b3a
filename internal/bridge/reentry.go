package bridge

import (
	"context"
	"net/url"
	"strings"

	"appbridge/internal/bridge/alipay"
	"appbridge/internal/bridge/codec"
	"appbridge/internal/bridge/domain"
	"appbridge/internal/bridge/pocket"
	"appbridge/internal/bridge/qq"
	"appbridge/internal/bridge/wechat"
	"appbridge/internal/bridge/weibo"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/logger"
)

// HandleReentry routes an inbound re-entry URL to the vendor it belongs to,
// decodes the URL-borne or clipboard-borne payload, and resolves the
// matching pending slot. It returns false, without side effects, for URLs
// that match no known vendor prefix or whose payload is malformed; the host
// uses that to pass the callback on to its other handlers
func (b *Bridge) HandleReentry(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := u.Scheme

	switch {
	case strings.HasPrefix(scheme, wechat.SchemePrefix):
		return b.reenterWeChat(u)
	case strings.HasPrefix(scheme, qq.ShareSchemePrefix):
		return b.reenterQQShare(u)
	case strings.HasPrefix(scheme, qq.OAuthSchemePrefix):
		return b.reenterQQOAuth()
	case strings.HasPrefix(scheme, weibo.SchemePrefix):
		return b.reenterWeibo()
	case strings.HasPrefix(scheme, pocket.SchemePrefix):
		return b.reenterPocket()
	case b.alipayOrderScheme != "" && scheme == b.alipayOrderScheme,
		strings.HasPrefix(scheme, alipay.ReentrySchemePrefix):
		return b.reenterAlipay(u)
	}
	return false
}

func (b *Bridge) reenterWeChat(u *url.URL) bool {
	ctx := logger.WithOperation(context.Background(), string(domain.VendorWeChat), "reentry")
	log := logger.C(ctx)

	account, err := b.reg.Lookup(domain.VendorWeChat)
	if err != nil {
		return false
	}
	query := codec.QueryDictionary(u)

	switch query["state"] {
	case "Weixinauth":
		code := query["code"]
		if code == "" {
			b.trk.ResolveOAuth(nil, perr.RemoteAPIf("wechat oauth refused"))
			return true
		}
		b.exchangeWeChatCode(ctx, account, code)
		return true
	case "wapoauth":
		// SMS-web intermediate step; the continuation page runs in the
		// system browser
		m, t := query["m"], query["t"]
		b.open(wechat.SMSAuthURL(account.AppID, m, t), log, func(err error) { b.trk.ResolveOAuth(nil, err) })
		return true
	}

	if strings.Contains(u.String(), "://pay/") {
		ok, handled := wechat.ParsePayResult(query)
		if !handled {
			return false
		}
		if ok {
			b.trk.ResolvePay(nil)
		} else {
			b.trk.ResolvePay(perr.RemoteAPIf("wechat payment failed (%s)", query["ret"]))
		}
		return true
	}

	if query["platformId"] == "wechat" {
		b.trk.ResolveOAuth(nil, perr.RemoteAPIf("wechat oauth failed"))
		return true
	}

	payload, found := b.pb.Data(wechat.PasteboardType)
	if !found {
		return false
	}
	ok, handled := wechat.ParseShareResult(payload, account.AppID)
	if !handled {
		return false
	}
	if ok {
		b.trk.ResolveDeliver(nil, nil)
	} else {
		b.trk.ResolveDeliver(nil, perr.RemoteAPIf("wechat share failed"))
	}
	return true
}

func (b *Bridge) reenterQQShare(u *url.URL) bool {
	ok, handled := qq.ParseShareQuery(codec.QueryDictionary(u))
	if !handled {
		return false
	}
	if ok {
		b.trk.ResolveDeliver(nil, nil)
	} else {
		b.trk.ResolveDeliver(nil, perr.RemoteAPIf("qq share failed"))
	}
	return true
}

func (b *Bridge) reenterQQOAuth() bool {
	account, err := b.reg.Lookup(domain.VendorQQ)
	if err != nil {
		return false
	}
	payload, found := b.pb.Data(qq.OAuthPasteboardType(account.AppID))
	if !found {
		return false
	}
	info, _, err := qq.ParseOAuthResult(payload)
	if perr.IsCode(err, perr.ErrorCodeSerialize) {
		return false
	}
	b.trk.ResolveOAuth(info, err)
	return true
}

func (b *Bridge) reenterWeibo() bool {
	var payload []byte
	for _, item := range b.pb.Items() {
		if data, found := item[weibo.TransferObjectType]; found {
			payload = data
			break
		}
	}
	if payload == nil {
		return false
	}
	class, dict, err := weibo.ParseTransferObject(payload)
	if err != nil {
		return false
	}
	code, hasCode := weibo.StatusCode(dict)

	switch class {
	case "WBSendMessageToWeiboResponse":
		if hasCode && code == 0 {
			b.trk.ResolveDeliver(dict, nil)
		} else {
			b.trk.ResolveDeliver(dict, weiboStatusError(code, hasCode, "share"))
		}
		return true
	case "WBAuthorizeResponse":
		if hasCode && code == 0 {
			b.trk.ResolveOAuth(dict, nil)
		} else {
			b.trk.ResolveOAuth(nil, weiboStatusError(code, hasCode, "oauth"))
		}
		return true
	}
	return false
}

// statusCode -1 is the SDK's user-cancelled marker
func weiboStatusError(code int, hasCode bool, op string) error {
	if hasCode && code == -1 {
		return perr.Cancelledf("user cancelled weibo %s", op)
	}
	return perr.RemoteAPIf("weibo %s failed (%d)", op, code)
}

func (b *Bridge) reenterPocket() bool {
	account, err := b.reg.Lookup(domain.VendorPocket)
	if err != nil {
		return false
	}
	ctx := logger.WithOperation(context.Background(), string(domain.VendorPocket), "reentry")
	b.finishPocketAuth(ctx, account)
	return true
}

func (b *Bridge) reenterAlipay(u *url.URL) bool {
	if alipay.IsPayReentry(u) {
		err := alipay.ParsePayResult(u)
		if perr.IsCode(err, perr.ErrorCodeSerialize) {
			return false
		}
		b.trk.ResolvePay(err)
		return true
	}

	account, err := b.reg.Lookup(domain.VendorAlipay)
	if err != nil {
		return false
	}
	payload, found := b.pb.Data(alipay.ResponsePasteboardType(account.AppID))
	if !found {
		return false
	}
	ok, handled := alipay.ParseShareResult(payload)
	if !handled {
		return false
	}
	if ok {
		b.trk.ResolveDeliver(nil, nil)
	} else {
		b.trk.ResolveDeliver(nil, perr.RemoteAPIf("alipay share failed"))
	}
	return true
}
