package bridge

import (
	"context"
	"net/url"

	"appbridge/internal/bridge/alipay"
	"appbridge/internal/bridge/domain"
	"appbridge/internal/bridge/oauth1"
	"appbridge/internal/bridge/qq"
	"appbridge/internal/bridge/twitter"
	"appbridge/internal/bridge/wechat"
	"appbridge/internal/bridge/weibo"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/httpkit"
	"appbridge/internal/platform/logger"
)

// DeliverMessage encodes and dispatches a share. Hard failures before any
// side effect (no account, capability mismatch, encode failure) invoke the
// handler synchronously; once dispatched, the handler is resolved through
// the pending slot by the inbound router or the REST continuation
func (b *Bridge) DeliverMessage(ctx context.Context, m domain.Message, done domain.DeliverHandler) {
	ctx = logger.WithOperation(ctx, string(m.MessageVendor()), domain.OpDeliver.String())
	log := logger.C(ctx)

	account, err := b.reg.Lookup(m.MessageVendor())
	if err != nil {
		done(nil, err)
		return
	}

	appInstalled := b.IsAppReachable(account.Vendor)

	switch msg := m.(type) {
	case domain.WeChatMessage:
		if !appInstalled {
			done(nil, perr.NotDeliverablef("wechat app not installed"))
			return
		}
		schemeURL, payload, err := wechat.EncodeShare(account.AppID, msg)
		if err != nil {
			done(nil, err)
			return
		}
		b.trk.InstallDeliver(done)
		b.pb.SetData(wechat.PasteboardType, payload)
		b.open(schemeURL, log, func(err error) { b.trk.ResolveDeliver(nil, err) })

	case domain.QQMessage:
		if !appInstalled {
			done(nil, perr.NotDeliverablef("qq app not installed"))
			return
		}
		schemeURL, largeData, err := qq.EncodeShare(account.AppID, b.host, msg)
		if err != nil {
			done(nil, err)
			return
		}
		b.trk.InstallDeliver(done)
		if largeData != nil {
			b.pb.SetData(qq.LargeDataPasteboardType, largeData)
		}
		b.open(schemeURL, log, func(err error) { b.trk.ResolveDeliver(nil, err) })

	case domain.WeiboMessage:
		if appInstalled {
			schemeURL, items, err := weibo.EncodeAppShare(account.AppID, b.host, msg)
			if err != nil {
				done(nil, err)
				return
			}
			b.trk.InstallDeliver(done)
			b.pb.SetItems(items)
			b.open(schemeURL, log, func(err error) { b.trk.ResolveDeliver(nil, err) })
			return
		}
		b.deliverWeiboWeb(ctx, msg, done)

	case domain.AlipayMessage:
		if !appInstalled {
			done(nil, perr.NotDeliverablef("alipay app not installed"))
			return
		}
		schemeURL, payload, err := alipay.EncodeShare(account.AppID, b.host, msg)
		if err != nil {
			done(nil, err)
			return
		}
		b.trk.InstallDeliver(done)
		b.pb.SetData(alipay.RequestPasteboardType(account.AppID), payload)
		b.open(schemeURL, log, func(err error) { b.trk.ResolveDeliver(nil, err) })

	case domain.TwitterMessage:
		b.deliverTwitter(ctx, account, msg, done)

	default:
		done(nil, perr.NotDeliverablef("%s does not support sharing", m.MessageVendor()))
	}
}

// deliverWeiboWeb posts a status over the REST fallback; success is defined
// by the response carrying an idstr, not by HTTP 200
func (b *Bridge) deliverWeiboWeb(ctx context.Context, m domain.WeiboMessage, done domain.DeliverHandler) {
	endpoint, params, pic, err := weibo.StatusParams(m)
	if err != nil {
		done(nil, err)
		return
	}

	b.trk.InstallDeliver(done)
	handle := func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveDeliver(nil, err)
			return
		}
		if cerr := weibo.ClassifyRESTResponse(body); cerr != nil {
			b.trk.ResolveDeliver(body, cerr)
			return
		}
		b.trk.ResolveDeliver(body, nil)
	}

	if pic != nil {
		b.http.Upload(ctx, endpoint, params, []httpkit.FilePart{{Field: "pic", Filename: "pic.jpg", Data: pic}}, nil, handle)
		return
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	b.http.PostForm(ctx, endpoint, form, nil, handle)
}

// deliverTwitter posts a status over the signed REST API, uploading inline
// image bytes first when present
func (b *Bridge) deliverTwitter(ctx context.Context, account domain.Account, m domain.TwitterMessage, done domain.DeliverHandler) {
	if _, bad := m.Info.Media.(domain.MediaAudio); bad {
		done(nil, perr.NotDeliverablef("twitter does not support this media kind"))
		return
	}
	if _, bad := m.Info.Media.(domain.MediaVideo); bad {
		done(nil, perr.NotDeliverablef("twitter does not support this media kind"))
		return
	}
	if _, bad := m.Info.Media.(domain.MediaFile); bad {
		done(nil, perr.NotDeliverablef("twitter does not support this media kind"))
		return
	}

	image, hasImage := m.Info.Media.(domain.MediaImage)
	if hasImage && len(image.Data) == 0 {
		done(nil, perr.InvalidMediaf("image share has no image data"))
		return
	}

	signer := oauth1.Signer{
		ConsumerKey:       account.AppID,
		ConsumerSecret:    account.AppKey,
		AccessToken:       m.AccessToken,
		AccessTokenSecret: m.AccessTokenSecret,
	}

	b.trk.InstallDeliver(done)

	post := func(msg domain.TwitterMessage) {
		params := twitter.StatusParams(msg)
		form := url.Values{}
		for k, v := range params {
			form.Set(k, v)
		}
		headers := map[string]string{
			"Authorization": signer.AuthorizationHeader("POST", twitter.UpdateStatusURL, params, false),
		}
		b.http.PostForm(ctx, twitter.UpdateStatusURL, form, headers, func(body httpkit.JSON, status int, err error) {
			if err != nil {
				b.trk.ResolveDeliver(nil, err)
				return
			}
			if status != 200 {
				b.trk.ResolveDeliver(body, twitter.ClassifyError(body))
				return
			}
			b.trk.ResolveDeliver(body, nil)
		})
	}

	if !hasImage {
		post(m)
		return
	}

	// media bytes are signed as absent
	headers := map[string]string{
		"Authorization": signer.AuthorizationHeader("POST", twitter.UploadMediaURL, nil, true),
	}
	files := []httpkit.FilePart{{Field: "media", Filename: "media.jpg", Data: image.Data}}
	b.http.Upload(ctx, twitter.UploadMediaURL, nil, files, headers, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveDeliver(nil, err)
			return
		}
		mediaID, _ := body["media_id_string"].(string)
		if status != 200 || mediaID == "" {
			b.trk.ResolveDeliver(body, twitter.ClassifyError(body))
			return
		}
		msg := m
		msg.MediaIDs = append(append([]string{}, m.MediaIDs...), mediaID)
		post(msg)
	})
}

// DeliverOrder hands a pre-built payment order to the vendor app. The order
// string is opaque; only the launch and the re-entry matching are ours
func (b *Bridge) DeliverOrder(ctx context.Context, o domain.Order, done domain.PayHandler) {
	ctx = logger.WithOperation(ctx, string(o.OrderVendor()), domain.OpPay.String())
	log := logger.C(ctx)

	account, err := b.reg.Lookup(o.OrderVendor())
	if err != nil {
		done(err)
		return
	}

	switch order := o.(type) {
	case domain.AlipayOrder:
		// payment has no web fallback; an absent app fails fast
		if !b.launcher.CanOpen(domain.VendorAlipay.PayProbeURL()) {
			done(perr.NotDeliverablef("alipay app not installed"))
			return
		}
		b.alipayOrderScheme = order.Scheme
		if b.alipayOrderScheme == "" {
			b.alipayOrderScheme = alipay.ReentrySchemePrefix + account.AppID
		}
		b.trk.InstallPay(done)
		b.open(order.OrderURL, log, func(err error) { b.trk.ResolvePay(err) })
	case domain.WeChatOrder:
		if !b.launcher.CanOpen(domain.VendorWeChat.PayProbeURL()) {
			done(perr.NotDeliverablef("wechat app not installed"))
			return
		}
		b.trk.InstallPay(done)
		b.open(order.OrderURL, log, func(err error) { b.trk.ResolvePay(err) })
	default:
		done(perr.NotDeliverablef("%s does not support payment orders", o.OrderVendor()))
	}
}

// open launches a scheme URL; a failed launch resolves the pending slot
// immediately through fail rather than waiting for a timeout
func (b *Bridge) open(rawurl string, log *logger.Logger, fail func(error)) {
	if err := b.launcher.Open(rawurl); err != nil {
		log.Debug().Str("url", rawurl).Err(err).Msg("scheme launch failed")
		fail(perr.Wrap(err, perr.ErrorCodeSchemeUnavailable, "scheme launch failed"))
		return
	}
	log.Debug().Str("url", rawurl).Msg("dispatched")
}
