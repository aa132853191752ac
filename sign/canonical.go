package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// canonicalQuery renders every query parameter except the signature itself
// in the stable encoded form. Signer and verifier must produce identical
// bytes here for the same logical request.
func canonicalQuery(query url.Values, signatureParam string) string {
	params := make(url.Values, len(query))
	for k, v := range query {
		if k != signatureParam {
			params[k] = v
		}
	}
	return EncodeQuery(params)
}

// canonicalHeaders renders the signed header subset as "name:value\n"
// lines, names lower-cased and sorted, values trimmed. signedHeaders is
// the semicolon-separated lowercase name list carried in (or implied by)
// the URL.
func canonicalHeaders(headers http.Header, signedHeaders string) string {
	names := strings.Split(signedHeaders, ";")
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value := strings.TrimSpace(headers.Get(name))
		b.WriteString(strings.ToLower(name))
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}

// signedHeaderNames returns the semicolon-joined lowercase list of headers
// bound into a signature. Host is always signed; Content-Type is signed
// exactly when present, which binds the content type of a PUT at signing
// time without breaking GETs that carry no body.
func signedHeaderNames(headers http.Header) string {
	if headers.Get("Content-Type") != "" {
		return "content-type;host"
	}
	return "host"
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
