// Package cropsurface implements a headless crop surface: a raster with a
// cumulative rotation and a rectangular crop box on top of it.
//
// It mirrors the configuration vocabulary of interactive browser croppers
// (view mode, drag mode, auto crop area, movable and resizable crop box) so
// that the same settings can be carried in configuration files, but all
// interaction happens through method calls. Pixel work is done with
// github.com/disintegration/imaging.
package cropsurface
