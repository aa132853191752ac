package stowry

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidPath reports whether p is acceptable as a storage path.
//
// Paths are relative (no leading slash), must not end with a slash, and
// must not contain traversal sequences, empty or "." segments, the
// characters \ ? # ~, control characters, whitespace, or invalid UTF-8.
// Rejecting these here means no later layer ever has to normalize a path,
// which matters for signing: normalization that changes the addressed
// object would change what a signature authorizes.
func IsValidPath(p string) bool {
	switch p {
	case "", "/", ".":
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.Contains(p, "/./") || strings.HasPrefix(p, "./") || strings.HasSuffix(p, "/.") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
