// Package httpkit provides the asynchronous HTTP client used for vendor
// REST calls. Every request registers a continuation that fires exactly
// once from the transport goroutine; there is no retry logic anywhere
package httpkit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/logger"
)

// JSON is the decoded response body shape shared across vendors
type JSON = map[string]any

// Handler is the continuation invoked once per request.
// body is the decoded response (JSON object or form-encoded pairs),
// status is the HTTP status code (0 when the connect itself failed)
type Handler func(body JSON, status int, err error)

// FilePart is one file field of a multipart upload
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// Client issues vendor REST calls
type Client struct {
	hc  *http.Client
	log *logger.Logger
}

// New returns a Client with sane defaults
func New() *Client {
	return &Client{
		hc:  &http.Client{Timeout: 30 * time.Second},
		log: logger.Named("httpkit"),
	}
}

// NewWithHTTPClient returns a Client over a caller-supplied http.Client (tests)
func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{hc: hc, log: logger.Named("httpkit")}
}

// Get issues an async GET and decodes the response
func (c *Client) Get(ctx context.Context, rawurl string, headers map[string]string, done Handler) {
	go c.do(ctx, http.MethodGet, rawurl, nil, "", headers, done)
}

// PostForm issues an async POST with a url-encoded body and decodes the response
func (c *Client) PostForm(ctx context.Context, rawurl string, form url.Values, headers map[string]string, done Handler) {
	var body []byte
	if form != nil {
		body = []byte(form.Encode())
	}
	go c.do(ctx, http.MethodPost, rawurl, body, "application/x-www-form-urlencoded", headers, done)
}

// Upload issues an async multipart POST with form fields and file parts
func (c *Client) Upload(
	ctx context.Context,
	rawurl string,
	fields map[string]string,
	files []FilePart,
	headers map[string]string,
	done Handler,
) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			go done(nil, 0, perr.Wrap(err, perr.ErrorCodeSerialize, "write multipart field"))
			return
		}
	}
	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = f.Field
		}
		w, err := mw.CreateFormFile(f.Field, name)
		if err == nil {
			_, err = w.Write(f.Data)
		}
		if err != nil {
			go done(nil, 0, perr.Wrap(err, perr.ErrorCodeSerialize, "write multipart file"))
			return
		}
	}
	if err := mw.Close(); err != nil {
		go done(nil, 0, perr.Wrap(err, perr.ErrorCodeSerialize, "close multipart body"))
		return
	}
	go c.do(ctx, http.MethodPost, rawurl, buf.Bytes(), mw.FormDataContentType(), headers, done)
}

// do performs the request and fires the continuation exactly once
func (c *Client) do(
	ctx context.Context,
	method, rawurl string,
	body []byte,
	contentType string,
	headers map[string]string,
	done Handler,
) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
	if err != nil {
		done(nil, 0, perr.Wrap(err, perr.ErrorCodeConnectFailed, "build request"))
		return
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug().Str("url", rawurl).Err(err).Msg("connect failed")
		done(nil, 0, perr.Wrap(err, perr.ErrorCodeConnectFailed, "connect failed"))
		return
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Msg("failed to close response body")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		done(nil, resp.StatusCode, perr.Wrap(err, perr.ErrorCodeConnectFailed, "read response body"))
		return
	}
	done(DecodeBody(raw), resp.StatusCode, nil)
}

// DecodeBody decodes a vendor response body. JSON objects decode as-is;
// anything else is tried as form-encoded pairs (the OAuth1 token endpoints
// answer that way). Undecodable bodies yield an empty map, not an error:
// callers classify by the fields they need
func DecodeBody(raw []byte) JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return JSON{}
	}
	if trimmed[0] == '{' {
		var out JSON
		if err := json.Unmarshal(trimmed, &out); err == nil {
			return out
		}
		return JSON{}
	}
	out := JSON{}
	if !strings.ContainsRune(string(trimmed), '=') {
		return out
	}
	vals, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return out
	}
	for k := range vals {
		out[k] = vals.Get(k)
	}
	return out
}
