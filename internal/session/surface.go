package session

import (
	"image"

	"github.com/nao1215/gridcrop/internal/cropsurface"
)

// CropSurface is an interactive crop over one raster. It owns the rotation
// and crop box.
type CropSurface interface {
	// Rotate turns the canvas by degrees, adding to the current rotation.
	Rotate(degrees float64)
	// Reset restores the initial crop box and rotation.
	Reset()
	// Destroy releases the surface. It must be safe to call twice.
	Destroy()
	// CroppedRaster renders the crop box into a standalone raster, or
	// returns nil after Destroy.
	CroppedRaster() image.Image
}

// BoxEditor is implemented by surfaces whose crop box can be set directly.
type BoxEditor interface {
	SetCropBox(r image.Rectangle) error
	CropBox() image.Rectangle
	CanvasSize() image.Point
}

// SurfaceFactory builds a crop surface over src.
type SurfaceFactory func(src image.Image) (CropSurface, error)

// NewSurfaceFactory returns a factory creating cropsurface.Surface values
// with opts.
func NewSurfaceFactory(opts cropsurface.Options) SurfaceFactory {
	return func(src image.Image) (CropSurface, error) {
		return cropsurface.New(src, opts)
	}
}

var (
	_ CropSurface = (*cropsurface.Surface)(nil)
	_ BoxEditor   = (*cropsurface.Surface)(nil)
)
