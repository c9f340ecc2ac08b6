// Package raster converts between encoded image bytes and decoded rasters.
//
// Decoding goes through github.com/disintegration/imaging with EXIF
// auto-orientation, so a photo taken in portrait arrives upright, as it would
// in a browser. BMP, TIFF and WebP decoders from golang.org/x/image are
// registered in addition to the standard PNG, JPEG and GIF ones.
//
// The package also extracts an EXIF summary with github.com/dsoprea/go-exif/v3
// and computes BLAKE2b content hashes used for cache keys and job history.
package raster
