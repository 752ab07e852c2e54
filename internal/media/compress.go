package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth = 1200
	jpegQuality     = 80
)

// Compress downsizes JPEG and PNG images to maxWidth and re-encodes them as
// JPEG. ok is false when the type is not handled or the result is not
// smaller than the input; the caller should then send the original.
func Compress(data []byte, contentType string, maxWidth int) ([]byte, bool, error) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	// JPEG has no alpha channel; transparent pixels would come out black.
	bounds := img.Bounds()
	img = imaging.Overlay(imaging.New(bounds.Dx(), bounds.Dy(), color.White), img, image.Pt(0, 0), 1)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}
	if buf.Len() >= len(data) {
		return nil, false, nil
	}
	return buf.Bytes(), true, nil
}
