package raster

import "errors"

var (
	// ErrTooLarge is returned when an image exceeds the configured pixel limit.
	// It is checked from the image header before the pixels are decoded.
	ErrTooLarge = errors.New("image exceeds pixel limit")

	// ErrEmptyRaster is returned when asked to encode an image with no pixels.
	ErrEmptyRaster = errors.New("image has no pixels")
)
