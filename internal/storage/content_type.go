package storage

import (
	"bytes"
	"io"
	"net/http"
)

// AllowedImageTypes are the MIME types accepted for cover image uploads.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsAllowedImageType reports whether contentType is an accepted image type.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[contentType]
}

// DetectContentType sniffs the MIME type from the reader's first 512 bytes.
// It returns the detected type and a new reader that replays the consumed
// bytes followed by the remainder of the original reader.
func DetectContentType(r io.Reader) (string, io.Reader, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	buf = buf[:n]

	contentType := http.DetectContentType(buf)
	combined := io.MultiReader(bytes.NewReader(buf), r)
	return contentType, combined, nil
}
