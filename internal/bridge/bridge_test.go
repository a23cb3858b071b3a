package bridge

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"appbridge/internal/bridge/alipay"
	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/domain"
	"appbridge/internal/bridge/qq"
	"appbridge/internal/bridge/wechat"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/httpkit"
)

// fakeLauncher records probes and launches; canOpen steers app-installed
// detection
type fakeLauncher struct {
	canOpen bool
	openErr error
	probed  []string
	opened  []string
}

func (f *fakeLauncher) CanOpen(rawurl string) bool {
	f.probed = append(f.probed, rawurl)
	return f.canOpen
}

func (f *fakeLauncher) Open(rawurl string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, rawurl)
	return nil
}

// rtFunc lets a test intercept the transport
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestBridge(launcher *fakeLauncher, rt rtFunc) *Bridge {
	opt := Options{
		Host:       domain.HostInfo{Name: "demoapp", BundleID: "dev.appbridge.demo"},
		Pasteboard: domain.NewMemoryPasteboard(),
		Launcher:   launcher,
	}
	if rt != nil {
		opt.HTTP = httpkit.NewWithHTTPClient(&http.Client{Transport: rt})
	}
	return New(opt)
}

func mustParse(t *testing.T, rawurl string) *url.URL {
	t.Helper()
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("parse %q: %v", rawurl, err)
	}
	return u
}

func TestRegistryVendorUniqueness(t *testing.T) {
	b := newTestBridge(&fakeLauncher{}, nil)
	for _, v := range domain.Vendors() {
		if err := b.RegisterAccount(domain.Account{Vendor: v, AppID: "first"}); err != nil {
			t.Fatalf("register %s: %v", v, err)
		}
		if err := b.RegisterAccount(domain.Account{Vendor: v, AppID: "second"}); err != nil {
			t.Fatalf("re-register %s: %v", v, err)
		}
	}
	if b.reg.Len() != len(domain.Vendors()) {
		t.Fatalf("registry holds %d accounts, want %d", b.reg.Len(), len(domain.Vendors()))
	}
	for _, v := range domain.Vendors() {
		a, err := b.reg.Lookup(v)
		if err != nil {
			t.Fatalf("lookup %s: %v", v, err)
		}
		if a.AppID != "second" {
			t.Fatalf("%s kept the first account", v)
		}
	}
}

func TestRegisterAccountValidation(t *testing.T) {
	b := newTestBridge(&fakeLauncher{}, nil)
	err := b.RegisterAccount(domain.Account{Vendor: "myspace", AppID: "1"})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("unknown vendor must fail validation, got %v", err)
	}
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("missing app id must fail validation, got %v", err)
	}
}

func TestDeliverWithoutAccount(t *testing.T) {
	b := newTestBridge(&fakeLauncher{canOpen: true}, nil)
	var got error
	b.DeliverMessage(context.Background(), domain.WeChatMessage{}, func(_ domain.ResponseJSON, err error) { got = err })
	if !perr.IsCode(got, perr.ErrorCodeNoAccount) {
		t.Fatalf("want no-account, got %v", got)
	}
}

func TestCapabilityMismatchHasNoSideEffects(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var got error
	b.DeliverMessage(context.Background(), domain.WeChatMessage{
		Info: domain.Info{Media: domain.MediaFile{Data: []byte{1}}},
	}, func(_ domain.ResponseJSON, err error) { got = err })

	if !perr.IsCode(got, perr.ErrorCodeNotDeliverable) {
		t.Fatalf("want not deliverable, got %v", got)
	}
	if len(launcher.opened) != 0 {
		t.Fatalf("launch happened despite hard failure")
	}
	if _, found := b.pb.Data(wechat.PasteboardType); found {
		t.Fatalf("pasteboard written despite hard failure")
	}
	if b.Pending(domain.OpDeliver) {
		t.Fatalf("slot installed despite hard failure")
	}
}

func TestFailedLaunchResolvesImmediately(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true, openErr: io.ErrClosedPipe}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var got error
	b.DeliverMessage(context.Background(), domain.WeChatMessage{
		Info: domain.Info{Media: domain.MediaURL{URL: "https://example.com"}},
	}, func(_ domain.ResponseJSON, err error) { got = err })

	if !perr.IsCode(got, perr.ErrorCodeSchemeUnavailable) {
		t.Fatalf("want scheme unavailable, got %v", got)
	}
	if b.Pending(domain.OpDeliver) {
		t.Fatalf("slot must be consumed by the launch failure")
	}
}

func TestHandleReentryUnknownScheme(t *testing.T) {
	b := newTestBridge(&fakeLauncher{canOpen: true}, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	b.trk.InstallDeliver(func(domain.ResponseJSON, error) { t.Fatalf("slot must not be touched") })

	if b.HandleReentry(mustParse(t, "myapp://callback?x=1")) {
		t.Fatalf("unknown scheme must not be handled")
	}
	if b.HandleReentry(nil) {
		t.Fatalf("nil URL must not be handled")
	}
	if !b.Pending(domain.OpDeliver) {
		t.Fatalf("pending slot consumed by unmatched input")
	}
}

func TestWeChatShareRoundTrip(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var done bool
	var got error
	b.DeliverMessage(context.Background(), domain.WeChatMessage{
		Scene: domain.WeChatSession,
		Info:  domain.Info{Title: "t", Media: domain.MediaURL{URL: "https://example.com"}},
	}, func(_ domain.ResponseJSON, err error) { done, got = true, err })

	if done {
		t.Fatalf("handler fired before re-entry")
	}
	if len(launcher.opened) != 1 || !strings.HasPrefix(launcher.opened[0], "weixin://app/wx1/") {
		t.Fatalf("launch missing: %v", launcher.opened)
	}

	// the app answers by rewriting the shared pasteboard type
	result, err := archive.MarshalBinary(map[string]any{"wx1": map[string]any{"result": "0"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b.pb.SetData(wechat.PasteboardType, result)

	if !b.HandleReentry(mustParse(t, "wx1://response")) {
		t.Fatalf("wechat re-entry not handled")
	}
	if !done || got != nil {
		t.Fatalf("share should resolve success, got done=%v err=%v", done, got)
	}
}

func TestWeChatPayReentry(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var got error
	called := false
	b.DeliverOrder(context.Background(), domain.WeChatOrder{OrderURL: "weixin://app/wx1/pay/?x=1"}, func(err error) {
		called, got = true, err
	})
	if !b.HandleReentry(mustParse(t, "wx1://pay/?ret=0")) {
		t.Fatalf("pay re-entry not handled")
	}
	if !called || got != nil {
		t.Fatalf("payment should resolve success, got %v", got)
	}
}

func TestDeliverOrderRequiresInstalledApp(t *testing.T) {
	launcher := &fakeLauncher{canOpen: false}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeChat, AppID: "wx1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorAlipay, AppID: "2021001"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	orders := []domain.Order{
		domain.WeChatOrder{OrderURL: "weixin://app/wx1/pay/?x=1"},
		domain.AlipayOrder{OrderURL: "alipay://alipayclient/?order"},
	}
	for _, o := range orders {
		var got error
		called := false
		b.DeliverOrder(context.Background(), o, func(err error) { called, got = true, err })
		if !called || !perr.IsCode(got, perr.ErrorCodeNotDeliverable) {
			t.Fatalf("%s: want not deliverable, got called=%v err=%v", o.OrderVendor(), called, got)
		}
		if len(launcher.opened) != 0 {
			t.Fatalf("order launched despite missing app: %v", launcher.opened)
		}
		if b.Pending(domain.OpPay) {
			t.Fatalf("%s: pay slot installed despite missing app", o.OrderVendor())
		}
	}

	// orders probe the payment scheme, not the share scheme
	if probe := launcher.probed[len(launcher.probed)-1]; probe != "alipay://" {
		t.Fatalf("alipay order probed %q", probe)
	}
}

func TestQQOAuthRoundTrip(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorQQ, AppID: "1006109"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var info domain.ResponseJSON
	var got error
	b.Authenticate(context.Background(), domain.VendorQQ, "get_user_info", func(i domain.ResponseJSON, err error) {
		info, got = i, err
	})
	if len(launcher.opened) != 1 || !strings.HasPrefix(launcher.opened[0], "mqqOpensdkSSoLogin://") {
		t.Fatalf("sso launch missing: %v", launcher.opened)
	}

	answer, err := archive.ArchiveDict(map[string]any{"ret": 0, "access_token": "T"})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	b.pb.SetData(qq.OAuthPasteboardType("1006109"), answer)

	if !b.HandleReentry(mustParse(t, "tencent1006109://response")) {
		t.Fatalf("qq oauth re-entry not handled")
	}
	if got != nil || info["access_token"] != "T" {
		t.Fatalf("oauth should resolve with the token, got %v / %v", info, got)
	}
}

func TestAlipayPayReentryCustomScheme(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorAlipay, AppID: "2021001"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var got error
	called := false
	b.DeliverOrder(context.Background(), domain.AlipayOrder{
		OrderURL: "alipay://alipayclient/?order",
		Scheme:   "whitelabel",
	}, func(err error) { called, got = true, err })

	body := url.QueryEscape(`{"memo":{"ResultStatus":"9000","memo":""}}`)
	if !b.HandleReentry(mustParse(t, "whitelabel://safepay/?"+body)) {
		t.Fatalf("custom-scheme pay re-entry not handled")
	}
	if !called || got != nil {
		t.Fatalf("payment should resolve success, got %v", got)
	}
}

func TestAlipayShareReentry(t *testing.T) {
	launcher := &fakeLauncher{canOpen: true}
	b := newTestBridge(launcher, nil)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorAlipay, AppID: "2021001"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var got error
	called := false
	b.DeliverMessage(context.Background(), domain.AlipayMessage{
		Info: domain.Info{Title: "hello"},
	}, func(_ domain.ResponseJSON, err error) { called, got = true, err })

	if _, found := b.pb.Data(alipay.RequestPasteboardType("2021001")); !found {
		t.Fatalf("request envelope missing from pasteboard")
	}

	objects := make([]any, 13)
	for i := range objects {
		objects[i] = "$null"
	}
	objects[12] = 0
	answer, err := archive.MarshalXML(map[string]any{
		"$archiver": "NSKeyedArchiver",
		"$objects":  objects,
		"$top":      map[string]any{"root": archive.UID(1)},
		"$version":  100000,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b.pb.SetData(alipay.ResponsePasteboardType("2021001"), answer)

	if !b.HandleReentry(mustParse(t, "ap2021001://response")) {
		t.Fatalf("alipay share re-entry not handled")
	}
	if !called || got != nil {
		t.Fatalf("share should resolve success, got %v", got)
	}
}

func TestWeiboWebFallbackScenario(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantCode perr.ErrorCode
		wantOK   bool
	}{
		{"success", `{"idstr":"123"}`, 0, true},
		{"invalid token", `{"error_code":21314}`, perr.ErrorCodeInvalidToken, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seenStatus string
			rt := rtFunc(func(r *http.Request) (*http.Response, error) {
				if !strings.Contains(r.URL.String(), "statuses/update.json") {
					t.Errorf("unexpected endpoint %s", r.URL)
				}
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}
				seenStatus = r.PostForm.Get("status")
				return jsonResponse(200, tc.body), nil
			})

			// no app installed: the share must take the REST path
			b := newTestBridge(&fakeLauncher{canOpen: false}, rt)
			if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorWeibo, AppID: "wb1"}); err != nil {
				t.Fatalf("register: %v", err)
			}

			done := make(chan error, 1)
			b.DeliverMessage(context.Background(), domain.WeiboMessage{
				Info: domain.Info{
					Title:       "Hi",
					Description: "world",
					Media:       domain.MediaURL{URL: "https://example.com"},
				},
				AccessToken: "T",
			}, func(_ domain.ResponseJSON, err error) { done <- err })

			var got error
			select {
			case got = <-done:
			case <-time.After(5 * time.Second):
				t.Fatalf("handler never fired")
			}

			if seenStatus != "Hi world https://example.com" {
				t.Fatalf("status = %q", seenStatus)
			}
			if tc.wantOK && got != nil {
				t.Fatalf("want success, got %v", got)
			}
			if !tc.wantOK && !perr.IsCode(got, tc.wantCode) {
				t.Fatalf("want code %d, got %v", tc.wantCode, got)
			}
		})
	}
}

func TestTwitterShareUploadsThenPosts(t *testing.T) {
	var calls []string
	rt := rtFunc(func(r *http.Request) (*http.Response, error) {
		calls = append(calls, r.URL.Host+r.URL.Path)
		if strings.Contains(r.URL.Host, "upload.twitter.com") {
			if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "OAuth ") {
				t.Errorf("upload not signed: %q", auth)
			}
			return jsonResponse(200, `{"media_id_string":"m1"}`), nil
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("media_ids") != "m1" {
			t.Errorf("media_ids = %q", r.PostForm.Get("media_ids"))
		}
		return jsonResponse(200, `{"id_str":"42"}`), nil
	})

	b := newTestBridge(&fakeLauncher{canOpen: false}, rt)
	if err := b.RegisterAccount(domain.Account{Vendor: domain.VendorTwitter, AppID: "ck", AppKey: "cs"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	done := make(chan error, 1)
	b.DeliverMessage(context.Background(), domain.TwitterMessage{
		Info:              domain.Info{Description: "pic", Media: domain.MediaImage{Data: []byte{0x01}}},
		AccessToken:       "at",
		AccessTokenSecret: "ats",
	}, func(_ domain.ResponseJSON, err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("want success, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("handler never fired")
	}
	if len(calls) != 2 || !strings.Contains(calls[0], "upload.twitter.com") {
		t.Fatalf("call order wrong: %v", calls)
	}
}
