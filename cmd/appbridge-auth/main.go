// appbridge-auth runs a browser OAuth flow for one vendor and persists the
// resulting token fields. Vendor apps are never reachable from a CLI host,
// so every flow goes through the loopback web fallback.
package main

import (
	"context"
	"os"
	"os/signal"

	"appbridge/internal/bridge"
	"appbridge/internal/bridge/domain"
	"appbridge/internal/platform/config"
	"appbridge/internal/platform/logger"
	"appbridge/internal/tokenstore"
	"appbridge/internal/webauth"
)

func main() {
	// flow config lives under BRIDGE_AUTH_*
	root := config.New()
	cfg := root.Prefix("BRIDGE_AUTH_")

	l := logger.Get()

	session := webauth.NewSession(webauth.Options{
		Addr:   cfg.MayString("ADDR", ""),
		Opener: webauth.BrowserLauncher{},
	})

	account := domain.Account{
		Vendor:      domain.Vendor(cfg.MayEnum("VENDOR", "", "wechat", "qq", "weibo", "alipay", "twitter", "pocket")),
		AppID:       cfg.MustString("APP_ID"),
		AppKey:      cfg.MayString("APP_KEY", ""),
		RedirectURL: cfg.MayString("REDIRECT_URL", session.RedirectURL()),
	}

	b := bridge.New(bridge.Options{
		Host:       domain.HostInfo{Name: "appbridge", BundleID: "dev.appbridge.cli"},
		Pasteboard: domain.NewMemoryPasteboard(),
		Launcher:   webauth.BrowserLauncher{},
		Web:        session,
	})
	if err := b.RegisterAccount(account); err != nil {
		l.Panic().Err(err).Msg("account rejected")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	b.Authenticate(ctx, account.Vendor, cfg.MayString("SCOPE", ""), func(info domain.ResponseJSON, err error) {
		defer close(done)
		if err != nil {
			l.Error().Err(err).Msg("authentication failed")
			return
		}
		if serr := store.Put(ctx, account.Vendor, account.AppID, info); serr != nil {
			l.Error().Err(serr).Msg("token not persisted")
			return
		}
		l.Info().Str("vendor", string(account.Vendor)).Msg("token stored")
	})

	select {
	case <-done:
	case <-ctx.Done():
		session.Cancel()
		l.Warn().Msg("interrupted")
	}
}
