package sign

import (
	"net/url"
	"sort"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// uriEncode percent-encodes s with the fixed table both schemes share:
// unreserved bytes (A-Z a-z 0-9 - _ . ~) pass through, space becomes %20
// never +, everything else becomes %XX with uppercase hex. encodeSlash
// distinguishes query material (true) from path segments (false).
func uriEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}

	return b.String()
}

// EncodePath encodes a decoded request path for use in a URL or canonical
// request. Slashes are kept; nothing else is special. The path is not
// cleaned: collapsing dots or slashes would change which object a
// signature authorizes.
func EncodePath(p string) string {
	return uriEncode(p, false)
}

// EncodeQuery renders query in the stable form used both in issued URLs
// and in canonical requests: every key and value encoded with the shared
// table, then pairs sorted bytewise by encoded key and encoded value.
// Sorting after encoding matters: stock S3 clients order the canonical
// query by the encoded parameter names, and for bytes that land on either
// side of '%' the two orders differ.
func EncodeQuery(query url.Values) string {
	type pair struct {
		key   string
		value string
	}

	pairs := make([]pair, 0, len(query))
	for k, values := range query {
		encodedKey := uriEncode(k, true)
		for _, v := range values {
			pairs = append(pairs, pair{key: encodedKey, value: uriEncode(v, true)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

// DecodeQuery is the inverse of EncodeQuery. EncodeQuery never emits '+',
// so standard URL decoding round-trips every value, including keys with
// spaces, slashes, and non-ASCII characters.
func DecodeQuery(s string) (url.Values, error) {
	return url.ParseQuery(s)
}
