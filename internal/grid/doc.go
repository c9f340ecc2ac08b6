// Package grid splits a raster into equal rectangular cells.
//
// Cells are produced in row-major order. Remainder pixels on the right and
// bottom edges that do not fill a whole cell are dropped.
package grid
