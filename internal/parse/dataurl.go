package parse

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var dataURLRe = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,`)

// ImageData holds the structured pieces of an uploaded image payload.
type ImageData struct {
	MIMEType string
	Raw      []byte
}

// DataURL splits a browser-encoded data URL into its MIME type and
// decoded bytes. Only base64-encoded image payloads are accepted; the
// detector forwards anything else (e.g. a plain URL) untouched.
func DataURL(raw string) (ImageData, error) {
	s := strings.TrimSpace(raw)

	m := dataURLRe.FindStringSubmatch(s)
	if m == nil {
		return ImageData{}, fmt.Errorf("not a base64 data URL")
	}

	mime := m[1]
	if !strings.HasPrefix(mime, "image/") {
		return ImageData{}, fmt.Errorf("unsupported payload type %q", mime)
	}

	decoded, err := base64.StdEncoding.DecodeString(s[len(m[0]):])
	if err != nil {
		return ImageData{}, fmt.Errorf("decode image payload: %w", err)
	}
	if len(decoded) == 0 {
		return ImageData{}, fmt.Errorf("empty image payload")
	}

	return ImageData{MIMEType: mime, Raw: decoded}, nil
}

// IsDataURL reports whether raw looks like a base64 data URL without
// decoding it.
func IsDataURL(raw string) bool {
	return dataURLRe.MatchString(strings.TrimSpace(raw))
}
