// Package internal holds the cursor encoding shared by the metadata repo
// implementations.
package internal

import (
	"encoding/base64"
	"fmt"
)

// List pagination is keyset-based: the cursor is the last returned path,
// base64url-encoded so it travels safely in query strings.

func EncodeCursor(path string) string {
	if path == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(path))
}

func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("decode cursor: %w", err)
	}
	return string(raw), nil
}
