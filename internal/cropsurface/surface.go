package cropsurface

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
)

// Surface is a raster plus a rotation and a crop box.
// Rotation is cumulative and positive angles turn clockwise. The crop box is
// in canvas coordinates, where the canvas is the rotated source.
type Surface struct {
	mu sync.Mutex

	source image.Image
	opts   Options

	rotation float64
	canvas   image.Image
	box      image.Rectangle

	destroyed bool
}

// New creates a surface over src with the initial centered crop box.
func New(src image.Image, opts Options) (*Surface, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrNilSource
	}
	if opts.AutoCropArea <= 0 || opts.AutoCropArea > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAutoCropArea, opts.AutoCropArea)
	}
	if opts.Background == nil {
		opts.Background = color.Transparent
	}

	s := &Surface{
		source: src,
		opts:   opts,
	}
	s.resetLocked()
	return s, nil
}

// Options returns the configuration the surface was created with.
func (s *Surface) Options() Options {
	return s.opts
}

// Rotate turns the canvas by degrees clockwise, adding to the current angle.
// The crop box turns with the canvas about its center and is clamped to the
// new canvas when ViewMode is 1 or more. It is a no-op after Destroy.
func (s *Surface) Rotate(degrees float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || degrees == 0 {
		return
	}

	oldCanvas := s.canvas.Bounds()
	s.rotation = normalizeAngle(s.rotation + degrees)
	s.canvas = s.renderCanvas()

	box := rotateRect(s.box, oldCanvas, s.canvas.Bounds(), degrees)
	if s.opts.ViewMode >= 1 {
		box = box.Intersect(s.canvas.Bounds())
	}
	if box.Empty() {
		box = initialBox(s.canvas.Bounds(), s.opts.AutoCropArea)
	}
	s.box = box
}

// Reset restores the initial rotation and crop box.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.resetLocked()
}

// Destroy releases the rasters. Later calls are no-ops and CroppedRaster
// returns nil.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.destroyed = true
	s.source = nil
	s.canvas = nil
}

// Destroyed reports whether Destroy has been called.
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// CroppedRaster copies the crop box region of the canvas into a standalone
// raster at its natural resolution, with bounds starting at (0, 0).
func (s *Surface) CroppedRaster() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return nil
	}
	return imaging.Crop(s.canvas, s.box)
}

// SetCropBox replaces the crop box.
// Position changes need CropBoxMovable and size changes need
// CropBoxResizable. With ViewMode 1 or more the box is clamped to the canvas.
func (s *Surface) SetCropBox(r image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrDestroyed
	}

	r = r.Canon()
	if r.Min != s.box.Min && !s.opts.CropBoxMovable {
		return ErrNotMovable
	}
	if r.Size() != s.box.Size() && !s.opts.CropBoxResizable {
		return ErrNotResizable
	}
	if s.opts.ViewMode >= 1 {
		r = r.Intersect(s.canvas.Bounds())
	}
	if r.Empty() {
		return ErrEmptyBox
	}

	s.box = r
	return nil
}

// CropBox returns the current crop box in canvas coordinates.
func (s *Surface) CropBox() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.box
}

// Rotation returns the cumulative rotation normalised to [0, 360).
func (s *Surface) Rotation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

// CanvasSize returns the size of the rotated canvas.
func (s *Surface) CanvasSize() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canvas == nil {
		return image.Point{}
	}
	return s.canvas.Bounds().Size()
}

func (s *Surface) resetLocked() {
	s.rotation = 0
	s.canvas = s.renderCanvas()
	s.box = initialBox(s.canvas.Bounds(), s.opts.AutoCropArea)
}

// renderCanvas returns the source turned by the current rotation with its
// bounds moved to the origin.
func (s *Surface) renderCanvas() image.Image {
	if s.rotation == 0 {
		if s.source.Bounds().Min == (image.Point{}) {
			return s.source
		}
		return imaging.Clone(s.source)
	}
	// imaging rotates counter-clockwise for positive angles.
	return imaging.Rotate(s.source, 360-s.rotation, s.opts.Background)
}

// initialBox centers a box covering area of each canvas dimension.
func initialBox(canvas image.Rectangle, area float64) image.Rectangle {
	w := int(math.Round(float64(canvas.Dx()) * area))
	h := int(math.Round(float64(canvas.Dy()) * area))
	w = max(w, 1)
	h = max(h, 1)
	x := canvas.Min.X + (canvas.Dx()-w)/2
	y := canvas.Min.Y + (canvas.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// rotateRect maps r from the old canvas to the new one by turning it
// clockwise by degrees about the canvas centers, and returns the bounding box.
func rotateRect(r, oldCanvas, newCanvas image.Rectangle, degrees float64) image.Rectangle {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)

	ocx := float64(oldCanvas.Min.X) + float64(oldCanvas.Dx())/2
	ocy := float64(oldCanvas.Min.Y) + float64(oldCanvas.Dy())/2
	ncx := float64(newCanvas.Min.X) + float64(newCanvas.Dx())/2
	ncy := float64(newCanvas.Min.Y) + float64(newCanvas.Dy())/2

	corners := [4][2]float64{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		dx, dy := c[0]-ocx, c[1]-ocy
		// Image y grows downwards, so this turns clockwise on screen.
		x := dx*cos - dy*sin + ncx
		y := dx*sin + dy*cos + ncy
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	return image.Rect(
		int(math.Round(minX)), int(math.Round(minY)),
		int(math.Round(maxX)), int(math.Round(maxY)),
	)
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
