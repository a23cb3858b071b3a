// Package codec holds the pure string transforms every vendor wire format
// needs: RFC 3986 percent-encoding, base64, the combined
// base64-then-percent-encode form, and query dictionary helpers
package codec

import (
	"encoding/base64"
	"net/url"
	"strconv"
	"strings"
)

// PercentEncode percent-encodes s leaving only the RFC 3986 unreserved set
// (ALPHA / DIGIT / "-" / "." / "_" / "~") untouched. This is the exact rule
// OAuth1 signing requires; url.QueryEscape is NOT equivalent (it emits '+')
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// Base64 returns the standard base64 encoding of s
func Base64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Base64PercentEncoded base64-encodes s then percent-encodes the result;
// used for embedding binary-ish text in vendor query strings
func Base64PercentEncoded(s string) string {
	return PercentEncode(Base64(s))
}

// URLDecoded reverses form-style encoding: '+' becomes space, then
// percent-unescaping. Returns s unchanged when unescaping fails
func URLDecoded(s string) string {
	replaced := strings.ReplaceAll(s, "+", " ")
	out, err := url.QueryUnescape(replaced)
	if err != nil {
		return s
	}
	return out
}

// QueryDictionary flattens a URL's query items into a string map
// (last value wins, valueless keys dropped)
func QueryDictionary(u *url.URL) map[string]string {
	out := map[string]string{}
	if u == nil {
		return out
	}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out
}

// QQCallbackName derives the re-entry scheme QQ registers for an app id:
// "QQ" + the id rendered as lowercase hex, left-padded with zeros to at
// least eight digits. Non-numeric ids hash to "QQ00000000"
func QQCallbackName(appID string) string {
	n, err := strconv.ParseInt(appID, 10, 64)
	if err != nil {
		n = 0
	}
	hex := strconv.FormatInt(n, 16)
	for len(hex) < 8 {
		hex = "0" + hex
	}
	return "QQ" + hex
}
