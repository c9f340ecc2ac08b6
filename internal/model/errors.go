package model

import "errors"

// Editing errors shared by the session, grid, editor and pipeline packages.
// Callers wrap these with fmt.Errorf("...: %w", err) to add context and
// test for them with errors.Is.
var (
	// ErrInvalidInput is returned when a file is not a decodable image, for
	// example when its MIME type does not start with "image/" or when its
	// pixel count exceeds the configured limit.
	ErrInvalidInput = errors.New("invalid input: not an image")

	// ErrInvalidGrid is returned when a grid has fewer than one row or column,
	// or when the cells it would produce are empty.
	ErrInvalidGrid = errors.New("invalid grid: rows and columns must be at least 1")

	// ErrProcessing is returned when decoding, encoding or background removal
	// fails. The underlying cause is wrapped alongside it.
	ErrProcessing = errors.New("processing failed")

	// ErrNoImage is returned by operations that need a loaded image when the
	// session is empty.
	ErrNoImage = errors.New("no image loaded")

	// ErrBusy is returned when a background removal is requested while another
	// one is still running on the same editor.
	ErrBusy = errors.New("background removal already in progress")

	// ErrLoadPending is returned when Load is called while a previous Load on
	// the same session has not finished decoding.
	ErrLoadPending = errors.New("another image is still loading")
)
