package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/hivelabs/namehive/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ThumbnailProcessor generates thumbnails for uploaded cover images.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a JPEG thumbnail from the provided image data.
	// Returns the thumbnail bytes plus the original width and height. The
	// thumbnail fits within maxWidth x maxHeight, preserving aspect ratio.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

// =============================================================================
// Implementation
// =============================================================================

type imagingProcessor struct{}

// NewImagingProcessor creates a thumbnail processor backed by the imaging
// library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(domain.ThumbnailJPEGQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), originalWidth, originalHeight, nil
}
