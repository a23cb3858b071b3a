package bridge

import (
	"context"
	"net/url"

	"appbridge/internal/bridge/domain"
	"appbridge/internal/bridge/oauth1"
	"appbridge/internal/bridge/pocket"
	"appbridge/internal/bridge/qq"
	"appbridge/internal/bridge/twitter"
	"appbridge/internal/bridge/wechat"
	"appbridge/internal/bridge/weibo"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/httpkit"
	"appbridge/internal/platform/logger"
)

// Authenticate starts an OAuth flow for a vendor: through the installed app
// when reachable, otherwise through the browser session collaborator. The
// handler resolves on re-entry or on the token-exchange continuation
func (b *Bridge) Authenticate(ctx context.Context, v domain.Vendor, scope string, done domain.OAuthHandler) {
	ctx = logger.WithOperation(ctx, string(v), domain.OpAuthenticate.String())
	log := logger.C(ctx)

	account, err := b.reg.Lookup(v)
	if err != nil {
		done(nil, err)
		return
	}
	appInstalled := b.IsAppReachable(v)

	switch v {
	case domain.VendorWeChat:
		if scope == "" {
			scope = wechat.DefaultScope
		}
		if appInstalled {
			b.trk.InstallOAuth(done)
			b.open(wechat.AuthURL(account.AppID, scope), log, func(err error) { b.trk.ResolveOAuth(nil, err) })
			return
		}
		b.beginWeb(ctx, done, wechat.MobileCheckURL(account.AppID), func(u *url.URL) bool {
			code := u.Query().Get("code")
			if code == "" {
				return false
			}
			b.exchangeWeChatCode(ctx, account, code)
			return true
		})

	case domain.VendorQQ:
		if appInstalled {
			schemeURL, payload, err := qq.EncodeSSOAuth(account.AppID, b.host, scope)
			if err != nil {
				done(nil, err)
				return
			}
			b.trk.InstallOAuth(done)
			b.pb.SetData(qq.OAuthPasteboardType(account.AppID), payload)
			b.open(schemeURL, log, func(err error) { b.trk.ResolveOAuth(nil, err) })
			return
		}
		// the web login page reports the token in the redirect fragment
		b.beginWeb(ctx, done, qq.WebAuthURL(account.AppID, scope), func(u *url.URL) bool {
			vals, err := url.ParseQuery(u.Fragment)
			if err != nil || vals.Get("access_token") == "" {
				return false
			}
			info := domain.ResponseJSON{}
			for k := range vals {
				info[k] = vals.Get(k)
			}
			b.trk.ResolveOAuth(info, nil)
			return true
		})

	case domain.VendorWeibo:
		if appInstalled {
			schemeURL, items, err := weibo.EncodeAppAuth(account.AppID, b.host, account.RedirectURL, scope)
			if err != nil {
				done(nil, err)
				return
			}
			b.trk.InstallOAuth(done)
			b.pb.SetItems(items)
			b.open(schemeURL, log, func(err error) { b.trk.ResolveOAuth(nil, err) })
			return
		}
		b.beginWeb(ctx, done, weibo.WebAuthURL(account.AppID, account.RedirectURL, scope), func(u *url.URL) bool {
			code := u.Query().Get("code")
			if code == "" {
				return false
			}
			b.exchangeWeiboCode(ctx, account, code)
			return true
		})

	case domain.VendorTwitter:
		b.authenticateTwitter(ctx, account, done)

	case domain.VendorPocket:
		b.authenticatePocket(ctx, account, appInstalled, log, done)

	default:
		done(nil, perr.NotDeliverablef("%s does not support authentication", v))
	}
}

// beginWeb installs the OAuth slot and opens a browser session; a rejected
// Begin (a session is already live) resolves the slot immediately
func (b *Bridge) beginWeb(ctx context.Context, done domain.OAuthHandler, authURL string, onRedirect func(*url.URL) bool) {
	if b.web == nil {
		done(nil, perr.NotDeliverablef("no browser session collaborator configured"))
		return
	}
	b.trk.InstallOAuth(done)
	if err := b.web.Begin(ctx, authURL, onRedirect); err != nil {
		b.trk.ResolveOAuth(nil, err)
	}
}

// exchangeWeChatCode trades an OAuth code for a token. Without a configured
// app key the exchange is skipped and the code itself is surfaced
func (b *Bridge) exchangeWeChatCode(ctx context.Context, account domain.Account, code string) {
	if account.AppKey == "" {
		b.trk.ResolveOAuth(domain.ResponseJSON{"code": code}, nil)
		return
	}
	b.http.Get(ctx, wechat.AccessTokenURL(account.AppID, account.AppKey, code), nil, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		if _, ok := body["access_token"]; !ok {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("wechat token exchange failed"), body))
			return
		}
		b.trk.ResolveOAuth(body, nil)
	})
}

func (b *Bridge) exchangeWeiboCode(ctx context.Context, account domain.Account, code string) {
	form := url.Values{}
	for k, v := range weibo.TokenExchangeForm(account.AppID, account.AppKey, account.RedirectURL, code) {
		form.Set(k, v)
	}
	b.http.PostForm(ctx, weibo.AccessTokenURL, form, nil, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		if _, ok := body["access_token"]; !ok {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("weibo token exchange failed"), body))
			return
		}
		b.trk.ResolveOAuth(body, nil)
	})
}

// authenticateTwitter runs the three-legged OAuth1 dance: request token,
// browser approval, verifier-for-token exchange, all signed
func (b *Bridge) authenticateTwitter(ctx context.Context, account domain.Account, done domain.OAuthHandler) {
	if b.web == nil {
		done(nil, perr.NotDeliverablef("no browser session collaborator configured"))
		return
	}
	signer := oauth1.Signer{ConsumerKey: account.AppID, ConsumerSecret: account.AppKey}

	b.trk.InstallOAuth(done)

	params := map[string]string{"oauth_callback": account.RedirectURL}
	form := url.Values{}
	form.Set("oauth_callback", account.RedirectURL)
	headers := map[string]string{
		"Authorization": signer.AuthorizationHeader("POST", twitter.RequestTokenURL, params, false),
	}
	b.http.PostForm(ctx, twitter.RequestTokenURL, form, headers, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		requestToken, _ := body["oauth_token"].(string)
		if requestToken == "" {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("twitter request token refused"), body))
			return
		}
		if err := b.web.Begin(ctx, twitter.AuthorizeURL(requestToken), func(u *url.URL) bool {
			token := u.Query().Get("oauth_token")
			verifier := u.Query().Get("oauth_verifier")
			if token == "" || verifier == "" {
				return false
			}
			b.exchangeTwitterVerifier(ctx, signer, token, verifier)
			return true
		}); err != nil {
			b.trk.ResolveOAuth(nil, err)
		}
	})
}

func (b *Bridge) exchangeTwitterVerifier(ctx context.Context, signer oauth1.Signer, token, verifier string) {
	params := map[string]string{"oauth_token": token, "oauth_verifier": verifier}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	headers := map[string]string{
		"Authorization": signer.AuthorizationHeader("POST", twitter.AccessTokenURL, params, false),
	}
	b.http.PostForm(ctx, twitter.AccessTokenURL, form, headers, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		if _, ok := body["oauth_token"]; !ok {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("twitter token exchange failed"), body))
			return
		}
		b.trk.ResolveOAuth(body, nil)
	})
}

// authenticatePocket fetches a request token, hands it to the app or the
// browser, and finishes the code-for-token exchange on re-entry
func (b *Bridge) authenticatePocket(ctx context.Context, account domain.Account, appInstalled bool, log *logger.Logger, done domain.OAuthHandler) {
	redirect := pocket.RedirectURL(account.AppID)

	b.trk.InstallOAuth(done)

	form := url.Values{}
	form.Set("consumer_key", account.AppID)
	form.Set("redirect_uri", redirect)
	b.http.PostForm(ctx, pocket.RequestTokenURL, form, nil, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		code, _ := body["code"].(string)
		if code == "" {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("pocket request token refused"), body))
			return
		}
		b.pocketRequestToken = code

		if appInstalled {
			b.open(pocket.AppAuthURL(code, redirect), log, func(err error) { b.trk.ResolveOAuth(nil, err) })
			return
		}
		if b.web == nil {
			b.trk.ResolveOAuth(nil, perr.NotDeliverablef("no browser session collaborator configured"))
			return
		}
		if err := b.web.Begin(ctx, pocket.WebAuthURL(code, redirect), func(u *url.URL) bool {
			return b.HandleReentry(u)
		}); err != nil {
			b.trk.ResolveOAuth(nil, err)
		}
	})
}

// finishPocketAuth trades the approved request token for an access token
func (b *Bridge) finishPocketAuth(ctx context.Context, account domain.Account) {
	code := b.pocketRequestToken
	b.pocketRequestToken = ""
	if code == "" {
		b.trk.ResolveOAuth(nil, nil)
		return
	}
	form := url.Values{}
	form.Set("consumer_key", account.AppID)
	form.Set("code", code)
	b.http.PostForm(ctx, pocket.AuthorizeTokenURL, form, nil, func(body httpkit.JSON, status int, err error) {
		if err != nil {
			b.trk.ResolveOAuth(nil, err)
			return
		}
		if _, ok := body["access_token"]; !ok {
			b.trk.ResolveOAuth(body, perr.WithPayload(perr.RemoteAPIf("pocket token exchange failed"), body))
			return
		}
		b.trk.ResolveOAuth(body, nil)
	})
}
