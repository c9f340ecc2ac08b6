package cropsurface

import "image/color"

// DragMode names what a drag gesture does on an interactive surface.
// A headless surface only records it.
type DragMode string

const (
	// DragModeCrop creates a new crop box.
	DragModeCrop DragMode = "crop"
	// DragModeMove moves the canvas.
	DragModeMove DragMode = "move"
	// DragModeNone does nothing.
	DragModeNone DragMode = "none"
)

// Options configures a Surface.
type Options struct {
	// ViewMode 0 lets the crop box extend past the canvas. Any value of 1 or
	// more keeps the box inside the canvas.
	ViewMode int `yaml:"view_mode"`

	// DragMode is recorded for parity with interactive surfaces.
	DragMode DragMode `yaml:"drag_mode"`

	// AutoCropArea is the fraction of each canvas dimension covered by the
	// initial crop box, which is centered. Must be in (0, 1].
	AutoCropArea float64 `yaml:"auto_crop_area"`

	// Guides and Center toggle the dashed guide lines and the center mark on
	// an interactive surface. They do not affect output.
	Guides bool `yaml:"guides"`
	Center bool `yaml:"center"`

	// CropBoxMovable allows SetCropBox to change the box position.
	CropBoxMovable bool `yaml:"crop_box_movable"`

	// CropBoxResizable allows SetCropBox to change the box size.
	CropBoxResizable bool `yaml:"crop_box_resizable"`

	// Background fills the corners uncovered by non-right-angle rotations.
	Background color.Color `yaml:"-"`
}

// DefaultAutoCropArea is the initial crop box fraction.
const DefaultAutoCropArea = 0.8

// DefaultOptions returns the editor defaults: view mode 1, move drag mode,
// an 80% centered crop box, guides and center mark on, and a crop box that can
// be moved and resized.
func DefaultOptions() Options {
	return Options{
		ViewMode:         1,
		DragMode:         DragModeMove,
		AutoCropArea:     DefaultAutoCropArea,
		Guides:           true,
		Center:           true,
		CropBoxMovable:   true,
		CropBoxResizable: true,
		Background:       color.Transparent,
	}
}
