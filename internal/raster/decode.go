package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/nao1215/gridcrop/internal/model"
)

// DefaultMaxPixels is the pixel limit used when a caller passes zero.
// 100 megapixels covers large camera output while keeping a decoded NRGBA
// buffer under half a gigabyte.
const DefaultMaxPixels = 100_000_000

// Info describes a decoded image.
type Info struct {
	// Format is the registered decoder name ("png", "jpeg", "webp", ...).
	Format string

	// Width and Height are the dimensions after EXIF orientation is applied.
	Width  int
	Height int
}

// Decode decodes data into a raster, applying EXIF orientation.
//
// The header is inspected first so that oversize images are rejected with
// model.ErrInvalidInput before any pixel memory is allocated. Any other
// failure is reported as model.ErrProcessing.
func Decode(data []byte, maxPixels int) (image.Image, Info, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: failed to read image header: %w", model.ErrProcessing, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, Info{}, fmt.Errorf("%w: image has no pixels", model.ErrInvalidInput)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, Info{}, fmt.Errorf("%w: %w (%dx%d > %d)",
			model.ErrInvalidInput, ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: failed to decode %s image: %w", model.ErrProcessing, format, err)
	}

	b := img.Bounds()
	return img, Info{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}
