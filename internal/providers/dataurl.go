package providers

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ParseDataURL splits a data URL into its mime type and decoded raw bytes.
// It expects the format: data:<mime>;base64,<payload>
func ParseDataURL(dataURL string) (mimeType string, raw []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL: missing 'data:' prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URL: missing comma separator")
	}
	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URL: missing ';base64' encoding marker")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	raw, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URL: base64 decode error: %w", err)
	}
	return mimeType, raw, nil
}

// BuildDataURL constructs a data URL from a mime type and raw bytes.
func BuildDataURL(mimeType string, raw []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// IsImageRef reports whether s looks like an image reference rather than
// plain text: an http(s) URL or a data URI.
func IsImageRef(s string) bool {
	return strings.HasPrefix(s, "http") || strings.HasPrefix(s, "data:")
}
