package model

import "fmt"

// GridSpec describes how a raster is partitioned into equal cells.
type GridSpec struct {
	// Rows is the number of horizontal bands. Must be at least 1.
	Rows int `json:"rows" yaml:"rows"`

	// Cols is the number of vertical bands. Must be at least 1.
	Cols int `json:"cols" yaml:"cols"`
}

// NewGridSpec returns a validated GridSpec.
func NewGridSpec(rows, cols int) (GridSpec, error) {
	g := GridSpec{Rows: rows, Cols: cols}
	if err := g.Validate(); err != nil {
		return GridSpec{}, err
	}
	return g, nil
}

// Validate reports ErrInvalidGrid when either dimension is below 1.
func (g GridSpec) Validate() error {
	if g.Rows < 1 || g.Cols < 1 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, g.Rows, g.Cols)
	}
	return nil
}

// Cells returns the number of cells the grid produces.
func (g GridSpec) Cells() int {
	return g.Rows * g.Cols
}

// CellSize returns the size of one cell for a width x height raster.
// Remainder pixels are not distributed; they are dropped from the right and
// bottom edges by the splitter.
func (g GridSpec) CellSize(width, height int) (cellW, cellH int) {
	if g.Rows < 1 || g.Cols < 1 {
		return 0, 0
	}
	return width / g.Cols, height / g.Rows
}

// String returns the grid in "RxC" form.
func (g GridSpec) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Cols)
}
