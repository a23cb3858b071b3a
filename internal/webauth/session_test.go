package webauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	perr "appbridge/internal/platform/errors"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return addr
}

func TestSecondBeginIsRejected(t *testing.T) {
	s := NewSession(Options{Addr: freeAddr(t)})
	defer s.Cancel()

	if err := s.Begin(context.Background(), "https://vendor.example/auth", func(*url.URL) bool { return false }); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	err := s.Begin(context.Background(), "https://vendor.example/auth", func(*url.URL) bool { return false })
	if !perr.IsCode(err, perr.ErrorCodeSessionActive) {
		t.Fatalf("want session-active, got %v", err)
	}
}

func TestRedirectCaptureAndTeardown(t *testing.T) {
	addr := freeAddr(t)
	s := NewSession(Options{Addr: addr})

	captured := make(chan *url.URL, 1)
	if err := s.Begin(context.Background(), "https://vendor.example/auth", func(u *url.URL) bool {
		captured <- u
		return true
	}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s%s?code=abc", addr, CallbackPath))
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	if cerr := resp.Body.Close(); cerr != nil {
		t.Fatalf("close body: %v", cerr)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	select {
	case u := <-captured:
		if u.Query().Get("code") != "abc" {
			t.Fatalf("captured %s", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("redirect never surfaced")
	}

	// completion tears the session down; a new one may begin
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := s.Begin(context.Background(), "https://vendor.example/auth", func(*url.URL) bool { return false })
		if err == nil {
			s.Cancel()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never became available again: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestCancelWithoutBegin(t *testing.T) {
	s := NewSession(Options{Addr: freeAddr(t)})
	s.Cancel()
}

func TestBrowserLauncherCanOpen(t *testing.T) {
	l := BrowserLauncher{}
	if !l.CanOpen("https://example.com") || !l.CanOpen("http://example.com") {
		t.Fatalf("web URLs must be openable")
	}
	if l.CanOpen("weixin://") || l.CanOpen("mqqapi://") {
		t.Fatalf("vendor schemes must report unreachable")
	}
}
