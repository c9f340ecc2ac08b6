package grid

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/nao1215/gridcrop/internal/model"
)

// quadrantImage returns a w x h image whose pixel at (x, y) encodes x in the
// red channel and y in the green channel.
func quadrantImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

// TestSplit tests grid partitioning.
func TestSplit(t *testing.T) {
	t.Parallel()

	t.Run("2x3 on 100x50 yields six 33x25 cells", func(t *testing.T) {
		t.Parallel()

		src := quadrantImage(100, 50)
		cells, err := Split(src, model.GridSpec{Rows: 2, Cols: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cells) != 6 {
			t.Fatalf("expected 6 cells, got %d", len(cells))
		}
		for i, cell := range cells {
			if got := cell.Bounds().Size(); got != image.Pt(33, 25) {
				t.Errorf("cell %d: expected 33x25, got %v", i, got)
			}
		}
	})

	t.Run("cells are in row-major order", func(t *testing.T) {
		t.Parallel()

		src := quadrantImage(100, 50)
		cells, err := Split(src, model.GridSpec{Rows: 2, Cols: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, cell := range cells {
			wantX := uint8((i % 3) * 33)
			wantY := uint8((i / 3) * 25)
			c := color.NRGBAModel.Convert(cell.At(cell.Bounds().Min.X, cell.Bounds().Min.Y)).(color.NRGBA)
			if c.R != wantX || c.G != wantY {
				t.Errorf("cell %d: expected origin (%d,%d), got (%d,%d)", i, wantX, wantY, c.R, c.G)
			}
		}
	})

	t.Run("1x1 returns the whole raster", func(t *testing.T) {
		t.Parallel()

		cells, err := Split(quadrantImage(7, 5), model.GridSpec{Rows: 1, Cols: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cells) != 1 || cells[0].Bounds().Size() != image.Pt(7, 5) {
			t.Errorf("expected a single 7x5 cell, got %d cells", len(cells))
		}
	})

	t.Run("source with offset bounds", func(t *testing.T) {
		t.Parallel()

		src := quadrantImage(20, 20).SubImage(image.Rect(10, 10, 20, 20))
		cells, err := Split(src, model.GridSpec{Rows: 2, Cols: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		last := cells[3]
		c := color.NRGBAModel.Convert(last.At(last.Bounds().Min.X, last.Bounds().Min.Y)).(color.NRGBA)
		if c.R != 15 || c.G != 15 {
			t.Errorf("expected last cell to start at (15,15), got (%d,%d)", c.R, c.G)
		}
	})

	t.Run("more columns than pixels is rejected", func(t *testing.T) {
		t.Parallel()

		cells, err := Split(quadrantImage(2, 2), model.GridSpec{Rows: 1, Cols: 3})
		if !errors.Is(err, model.ErrInvalidGrid) {
			t.Fatalf("expected ErrInvalidGrid, got %v", err)
		}
		if cells != nil {
			t.Errorf("expected no cells, got %d", len(cells))
		}
	})

	t.Run("more rows than pixels is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := Split(quadrantImage(4, 2), model.GridSpec{Rows: 3, Cols: 1}); !errors.Is(err, model.ErrInvalidGrid) {
			t.Fatalf("expected ErrInvalidGrid, got %v", err)
		}
	})

	t.Run("one pixel per cell is allowed", func(t *testing.T) {
		t.Parallel()

		cells, err := Split(quadrantImage(3, 2), model.GridSpec{Rows: 2, Cols: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cells) != 6 {
			t.Fatalf("expected 6 cells, got %d", len(cells))
		}
		for i, c := range cells {
			if c.Bounds().Dx() != 1 || c.Bounds().Dy() != 1 {
				t.Errorf("cell %d: expected 1x1, got %v", i, c.Bounds())
			}
		}
	})

	t.Run("huge grids are rejected without allocating", func(t *testing.T) {
		t.Parallel()

		for _, spec := range []model.GridSpec{
			{Rows: math.MaxInt32, Cols: math.MaxInt32},
			{Rows: 100000, Cols: 100000},
			{Rows: 1, Cols: math.MaxInt},
		} {
			cells, err := Split(quadrantImage(10, 10), spec)
			if !errors.Is(err, model.ErrInvalidGrid) {
				t.Errorf("%v: expected ErrInvalidGrid, got %v", spec, err)
			}
			if cells != nil {
				t.Errorf("%v: expected no cells", spec)
			}
		}
	})

	t.Run("source is not modified", func(t *testing.T) {
		t.Parallel()

		src := quadrantImage(10, 10)
		before := append([]uint8(nil), src.Pix...)
		if _, err := Split(src, model.GridSpec{Rows: 3, Cols: 3}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range before {
			if before[i] != src.Pix[i] {
				t.Fatal("source pixels changed")
			}
		}
	})

	t.Run("invalid grids are rejected", func(t *testing.T) {
		t.Parallel()

		for _, spec := range []model.GridSpec{{Rows: 0, Cols: 3}, {Rows: 2, Cols: 0}, {Rows: -1, Cols: 1}} {
			cells, err := Split(quadrantImage(10, 10), spec)
			if !errors.Is(err, model.ErrInvalidGrid) {
				t.Errorf("%v: expected ErrInvalidGrid, got %v", spec, err)
			}
			if cells != nil {
				t.Errorf("%v: expected no cells", spec)
			}
		}
	})

	t.Run("nil source is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := Split(nil, model.GridSpec{Rows: 1, Cols: 1})
		if !errors.Is(err, model.ErrNoImage) {
			t.Errorf("expected ErrNoImage, got %v", err)
		}
	})
}
