package weibo

import (
	"strings"
	"testing"

	"appbridge/internal/bridge/archive"
	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/testkit"
)

const testAppID = "2168365762"

var testHost = domain.HostInfo{Name: "demoapp", BundleID: "dev.appbridge.demo"}

func TestEncodeAppShareLink(t *testing.T) {
	schemeURL, items, err := EncodeAppShare(testAppID, testHost, domain.WeiboMessage{
		Info: domain.Info{
			Title:       "t",
			Description: "d",
			Thumbnail:   []byte{0x01},
			Media:       domain.MediaURL{URL: "https://example.com"},
		},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	testkit.MustContain(t, schemeURL, "weibosdk://request?id=")
	testkit.MustContain(t, schemeURL, "&sdkversion=003013000")

	if len(items) != 2 {
		t.Fatalf("item count = %d", len(items))
	}
	transfer, err := archive.UnarchiveDict(items[0][TransferObjectType])
	if err != nil {
		t.Fatalf("transfer decode: %v", err)
	}
	if transfer["__class"] != "WBSendMessageToWeiboRequest" {
		t.Fatalf("wrong class: %v", transfer["__class"])
	}
	message := transfer["message"].(map[string]any)
	mediaObject := message["mediaObject"].(map[string]any)
	if mediaObject["__class"] != "WBWebpageObject" || mediaObject["webpageUrl"] != "https://example.com" {
		t.Fatalf("webpage object wrong: %v", mediaObject)
	}

	// correlation id in the URL matches the archived request id
	id := strings.TrimPrefix(schemeURL, "weibosdk://request?id=")
	id = strings.SplitN(id, "&", 2)[0]
	if transfer["requestID"] != id {
		t.Fatalf("request id mismatch: %v vs %s", transfer["requestID"], id)
	}

	app, err := archive.UnarchiveDict(items[1]["app"])
	if err != nil {
		t.Fatalf("app decode: %v", err)
	}
	if app["appKey"] != testAppID || app["bundleID"] != testHost.BundleID {
		t.Fatalf("app descriptor wrong: %v", app)
	}
}

func TestEncodeAppShareLinkWithoutThumbnail(t *testing.T) {
	decodeMessage := func(t *testing.T, items []map[string][]byte) map[string]any {
		t.Helper()
		transfer, err := archive.UnarchiveDict(items[0][TransferObjectType])
		if err != nil {
			t.Fatalf("transfer decode: %v", err)
		}
		return transfer["message"].(map[string]any)
	}

	_, items, err := EncodeAppShare(testAppID, testHost, domain.WeiboMessage{
		Info: domain.Info{
			Description: "read this",
			Media:       domain.MediaURL{URL: "https://example.com"},
		},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	message := decodeMessage(t, items)
	if _, ok := message["mediaObject"]; ok {
		t.Fatalf("webpage object requires a thumbnail: %v", message)
	}
	if message["text"] != "read this https://example.com" {
		t.Fatalf("text = %q", message["text"])
	}

	// no text either: the link stands alone
	_, items, err = EncodeAppShare(testAppID, testHost, domain.WeiboMessage{
		Info: domain.Info{Media: domain.MediaURL{URL: "https://example.com"}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if message := decodeMessage(t, items); message["text"] != "https://example.com" {
		t.Fatalf("text = %q", message["text"])
	}
}

func TestEncodeAppShareRejectsAudio(t *testing.T) {
	_, _, err := EncodeAppShare(testAppID, testHost, domain.WeiboMessage{
		Info: domain.Info{Media: domain.MediaAudio{URL: "https://a"}},
	})
	if !perr.IsCode(err, perr.ErrorCodeNotDeliverable) {
		t.Fatalf("want not deliverable, got %v", err)
	}
}

func TestEncodeAppAuthItems(t *testing.T) {
	_, items, err := EncodeAppAuth(testAppID, testHost, "https://cb.example.com", "all")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("item count = %d", len(items))
	}
	transfer, err := archive.UnarchiveDict(items[0][TransferObjectType])
	if err != nil {
		t.Fatalf("transfer decode: %v", err)
	}
	if transfer["__class"] != "WBAuthorizeRequest" || transfer["redirectURI"] != "https://cb.example.com" {
		t.Fatalf("authorize request wrong: %v", transfer)
	}
}

func TestStatusParams(t *testing.T) {
	endpoint, params, pic, err := StatusParams(domain.WeiboMessage{
		Info: domain.Info{
			Title:       "Hi",
			Description: "world",
			Media:       domain.MediaURL{URL: "https://example.com"},
		},
		AccessToken: "T",
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if endpoint != UpdateStatusURL || pic != nil {
		t.Fatalf("link share must hit the update endpoint")
	}
	if params["status"] != "Hi world https://example.com" || params["access_token"] != "T" {
		t.Fatalf("params wrong: %v", params)
	}

	endpoint, _, pic, err = StatusParams(domain.WeiboMessage{
		Info: domain.Info{Media: domain.MediaImage{Data: []byte{0x01}}},
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if endpoint != UploadStatusURL || pic == nil {
		t.Fatalf("image share must hit the upload endpoint with a pic part")
	}

	// bare link: no stray leading space
	_, params, _, err = StatusParams(domain.WeiboMessage{
		Info: domain.Info{Media: domain.MediaURL{URL: "https://example.com"}},
	})
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params["status"] != "https://example.com" {
		t.Fatalf("status = %q", params["status"])
	}
}

func TestClassifyRESTResponse(t *testing.T) {
	if err := ClassifyRESTResponse(map[string]any{"idstr": "123"}); err != nil {
		t.Fatalf("idstr means success, got %v", err)
	}
	err := ClassifyRESTResponse(map[string]any{"error_code": float64(21314)})
	if !perr.IsCode(err, perr.ErrorCodeInvalidToken) {
		t.Fatalf("21314 must map to invalid token, got %v", err)
	}
	err = ClassifyRESTResponse(map[string]any{"error_code": float64(10001)})
	if !perr.IsCode(err, perr.ErrorCodeRemoteAPI) {
		t.Fatalf("unknown code must map to remote api, got %v", err)
	}
	if perr.PayloadOf(err) == nil {
		t.Fatalf("raw payload must ride along")
	}
}

func TestParseTransferObject(t *testing.T) {
	payload, err := archive.ArchiveDict(map[string]any{
		"__class":    "WBSendMessageToWeiboResponse",
		"statusCode": 0,
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	class, dict, err := ParseTransferObject(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if class != "WBSendMessageToWeiboResponse" {
		t.Fatalf("class = %q", class)
	}
	code, ok := StatusCode(dict)
	if !ok || code != 0 {
		t.Fatalf("status code = (%d, %v)", code, ok)
	}
}
