// appbridge-share posts text, a link, or an image through a vendor's web
// fallback using a token stored by appbridge-auth. Only Weibo and Twitter
// expose a pure-REST share path.
package main

import (
	"context"
	"os"

	"appbridge/internal/bridge"
	"appbridge/internal/bridge/domain"
	"appbridge/internal/platform/config"
	"appbridge/internal/platform/logger"
	"appbridge/internal/tokenstore"
	"appbridge/internal/webauth"
)

func main() {
	// flow config lives under BRIDGE_SHARE_*
	root := config.New()
	cfg := root.Prefix("BRIDGE_SHARE_")

	l := logger.Get()

	vendor := domain.Vendor(cfg.MayEnum("VENDOR", "weibo", "weibo", "twitter"))
	account := domain.Account{
		Vendor: vendor,
		AppID:  cfg.MustString("APP_ID"),
		AppKey: cfg.MayString("APP_KEY", ""),
	}

	store, err := tokenstore.Open(cfg.MayString("STORE_PATH", "appbridge.db"))
	if err != nil {
		l.Panic().Err(err).Msg("token store open failed")
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			l.Error().Err(cerr).Msg("failed to close token store")
		}
	}()

	ctx := context.Background()
	token, err := store.Get(ctx, vendor, account.AppID)
	if err != nil {
		l.Panic().Err(err).Msg("no stored token; run appbridge-auth first")
	}

	info := domain.Info{
		Title:       cfg.MayString("TITLE", ""),
		Description: cfg.MayString("DESCRIPTION", ""),
	}
	if link := cfg.MayString("LINK", ""); link != "" {
		info.Media = domain.MediaURL{URL: link}
	}
	if path := cfg.MayString("IMAGE_PATH", ""); path != "" {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			l.Panic().Err(rerr).Str("path", path).Msg("image read failed")
		}
		info.Media = domain.MediaImage{Data: data}
	}

	var message domain.Message
	switch vendor {
	case domain.VendorWeibo:
		message = domain.WeiboMessage{
			Info:        info,
			AccessToken: stringField(token, "access_token"),
		}
	case domain.VendorTwitter:
		message = domain.TwitterMessage{
			Info:              info,
			AccessToken:       stringField(token, "oauth_token"),
			AccessTokenSecret: stringField(token, "oauth_token_secret"),
		}
	}

	b := bridge.New(bridge.Options{
		Host:       domain.HostInfo{Name: "appbridge", BundleID: "dev.appbridge.cli"},
		Pasteboard: domain.NewMemoryPasteboard(),
		Launcher:   webauth.BrowserLauncher{},
	})
	if err := b.RegisterAccount(account); err != nil {
		l.Panic().Err(err).Msg("account rejected")
	}

	done := make(chan struct{})
	b.DeliverMessage(ctx, message, func(response domain.ResponseJSON, err error) {
		defer close(done)
		if err != nil {
			l.Error().Err(err).Msg("share failed")
			return
		}
		l.Info().Interface("response", response).Msg("shared")
	})
	<-done
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
