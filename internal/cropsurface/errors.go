package cropsurface

import "errors"

var (
	// ErrDestroyed is returned by operations on a surface after Destroy.
	ErrDestroyed = errors.New("crop surface has been destroyed")

	// ErrNilSource is returned when a surface is created without a raster.
	ErrNilSource = errors.New("crop surface needs a source raster")

	// ErrEmptyBox is returned when a crop box has no area inside the canvas.
	ErrEmptyBox = errors.New("crop box is empty")

	// ErrNotMovable is returned when a box move is attempted while
	// CropBoxMovable is false.
	ErrNotMovable = errors.New("crop box is not movable")

	// ErrNotResizable is returned when a box resize is attempted while
	// CropBoxResizable is false.
	ErrNotResizable = errors.New("crop box is not resizable")

	// ErrInvalidAutoCropArea is returned when AutoCropArea is outside (0, 1].
	ErrInvalidAutoCropArea = errors.New("auto crop area must be in (0, 1]")
)
