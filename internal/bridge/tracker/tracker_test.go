package tracker

import (
	"testing"

	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

func TestResolveInvokesExactlyOnce(t *testing.T) {
	trk := New()
	calls := 0
	trk.InstallDeliver(func(response domain.ResponseJSON, err error) {
		calls++
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if response["id"] != "1" {
			t.Fatalf("wrong response: %v", response)
		}
	})
	if !trk.Pending(domain.OpDeliver) {
		t.Fatalf("slot should be pending after install")
	}
	trk.ResolveDeliver(domain.ResponseJSON{"id": "1"}, nil)
	trk.ResolveDeliver(domain.ResponseJSON{"id": "2"}, nil)
	if calls != 1 {
		t.Fatalf("handler invoked %d times, want 1", calls)
	}
	if trk.Pending(domain.OpDeliver) {
		t.Fatalf("slot should be empty after resolve")
	}
}

func TestResolveEmptySlotIsNoOp(t *testing.T) {
	trk := New()
	trk.ResolveDeliver(nil, nil)
	trk.ResolveOAuth(nil, perr.RemoteAPIf("dropped"))
	trk.ResolvePay(nil)
}

func TestInstallOverwrites(t *testing.T) {
	trk := New()
	var got string
	trk.InstallOAuth(func(domain.ResponseJSON, error) { got = "first" })
	trk.InstallOAuth(func(domain.ResponseJSON, error) { got = "second" })
	trk.ResolveOAuth(nil, nil)
	if got != "second" {
		t.Fatalf("last-writer-wins violated: %q", got)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	trk := New()
	trk.InstallDeliver(func(domain.ResponseJSON, error) {})
	trk.InstallPay(func(error) {})
	trk.ResolvePay(nil)
	if !trk.Pending(domain.OpDeliver) {
		t.Fatalf("resolving pay must not touch deliver")
	}
	if trk.Pending(domain.OpAuthenticate) {
		t.Fatalf("authenticate never installed")
	}
}
