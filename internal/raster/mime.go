package raster

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// IsImageMIME reports whether mimeType declares an image ("image/*").
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// DetectMIME returns the media type for a file, preferring its extension and
// falling back to content sniffing. Parameters such as charset are stripped.
func DetectMIME(path string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
		return byExt
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	sniffed := http.DetectContentType(head)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return sniffed
}
