package twitter

import (
	"testing"

	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
)

func TestStatusParams(t *testing.T) {
	params := StatusParams(domain.TwitterMessage{
		Info: domain.Info{
			Description: "hello",
			Media:       domain.MediaURL{URL: "https://example.com"},
		},
		MediaIDs: []string{"1", "2"},
	})
	if params["status"] != "hello https://example.com" {
		t.Fatalf("status = %q", params["status"])
	}
	if params["media_ids"] != "1,2" {
		t.Fatalf("media_ids = %q", params["media_ids"])
	}

	params = StatusParams(domain.TwitterMessage{Info: domain.Info{Description: "plain"}})
	if _, ok := params["media_ids"]; ok {
		t.Fatalf("no media ids expected")
	}

	// bare link: no stray leading space
	params = StatusParams(domain.TwitterMessage{
		Info: domain.Info{Media: domain.MediaURL{URL: "https://example.com"}},
	})
	if params["status"] != "https://example.com" {
		t.Fatalf("status = %q", params["status"])
	}
}

func TestAuthorizeURL(t *testing.T) {
	if got := AuthorizeURL("tok"); got != AuthenticateURL+"?oauth_token=tok" {
		t.Fatalf("got %q", got)
	}
}

func TestClassifyError(t *testing.T) {
	err := ClassifyError(map[string]any{
		"errors": []any{map[string]any{"code": float64(89), "message": "Invalid or expired token."}},
	})
	if !perr.IsCode(err, perr.ErrorCodeInvalidToken) {
		t.Fatalf("89 must map to invalid token, got %v", err)
	}

	err = ClassifyError(map[string]any{
		"errors": []any{map[string]any{"code": float64(187), "message": "Status is a duplicate."}},
	})
	if !perr.IsCode(err, perr.ErrorCodeRemoteAPI) {
		t.Fatalf("unknown code must map to remote api, got %v", err)
	}
	if perr.PayloadOf(err) == nil {
		t.Fatalf("raw payload must ride along")
	}

	if err := ClassifyError(map[string]any{}); !perr.IsCode(err, perr.ErrorCodeRemoteAPI) {
		t.Fatalf("shapeless body must still classify, got %v", err)
	}
}
