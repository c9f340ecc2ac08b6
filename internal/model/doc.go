// Package model defines the core data structures shared across gridcrop.
//
// This package contains the following main types:
//   - GridSpec: rows x cols partition of a raster
//   - Result, ResultSet: encoded output images and their file names
//   - Job: one input file moving through the pipeline
//   - ImageMetadata: EXIF summary of an input image
//
// It also holds the sentinel errors used at every operation boundary
// (ErrInvalidInput, ErrInvalidGrid, ErrProcessing and friends), so that the
// session, grid, editor and pipeline packages can agree on them without
// importing each other.
package model
