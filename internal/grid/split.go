package grid

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nao1215/gridcrop/internal/model"
)

// Split partitions src into spec.Rows x spec.Cols cells of
// floor(W/cols) x floor(H/rows) pixels each. Cell i is row i/cols,
// column i%cols. The source is not modified.
//
// A grid with more rows or columns than src has pixels is rejected with
// model.ErrInvalidGrid before anything is allocated, so every cell is at
// least 1x1 and the cell count never exceeds the pixel count.
func Split(src image.Image, spec model.GridSpec) ([]image.Image, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, model.ErrNoImage
	}

	b := src.Bounds()
	if spec.Rows > b.Dy() || spec.Cols > b.Dx() {
		return nil, fmt.Errorf("%w: %s cells of a %dx%d image are empty",
			model.ErrInvalidGrid, spec, b.Dx(), b.Dy())
	}
	cellW, cellH := spec.CellSize(b.Dx(), b.Dy())

	cells := make([]image.Image, 0, spec.Cells())
	for r := range spec.Rows {
		for c := range spec.Cols {
			cells = append(cells, imaging.Crop(src, CellRect(b, cellW, cellH, r, c)))
		}
	}
	return cells, nil
}

// CellRect returns the rectangle of cell (row, col) inside bounds.
func CellRect(bounds image.Rectangle, cellW, cellH, row, col int) image.Rectangle {
	x := bounds.Min.X + col*cellW
	y := bounds.Min.Y + row*cellH
	return image.Rect(x, y, x+cellW, y+cellH)
}
