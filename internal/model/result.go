package model

import (
	"fmt"
	"time"
)

// ResultFilenamePattern is the download name pattern for result images.
// The placeholder is the 1-based position in the result set.
const ResultFilenamePattern = "crop_%d.png"

// ResultFilename returns the file name for the result at the 0-based index.
func ResultFilename(index int) string {
	return fmt.Sprintf(ResultFilenamePattern, index+1)
}

// Result is one encoded output image.
type Result struct {
	// Filename is the suggested download name (crop_<n>.png).
	Filename string `json:"filename"`

	// Width and Height are the pixel dimensions of the encoded image.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Data is the PNG-encoded image. It is omitted from JSON reports.
	Data []byte `json:"-"`

	// Size is len(Data), kept separately so reports survive without the bytes.
	Size int `json:"size"`
}

// ResultSet is the ordered output of one crop or split action.
// Grid results are row-major: row 0 left to right, then row 1, and so on.
type ResultSet struct {
	// Results holds the encoded images in output order.
	Results []Result `json:"results"`

	// Grid is set for split results and zero for a plain crop.
	Grid GridSpec `json:"grid"`

	// CreatedAt is when the set was produced.
	CreatedAt time.Time `json:"created_at"`
}

// NewResultSet builds a ResultSet from encoded images, naming each one with
// ResultFilename in order.
func NewResultSet(grid GridSpec, encoded [][]byte, sizes [][2]int) *ResultSet {
	rs := &ResultSet{
		Results:   make([]Result, len(encoded)),
		Grid:      grid,
		CreatedAt: time.Now(),
	}
	for i, data := range encoded {
		r := Result{
			Filename: ResultFilename(i),
			Data:     data,
			Size:     len(data),
		}
		if i < len(sizes) {
			r.Width, r.Height = sizes[i][0], sizes[i][1]
		}
		rs.Results[i] = r
	}
	return rs
}

// Len returns the number of results. A nil set has none.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Results)
}

// TotalSize returns the combined encoded size of all results.
func (rs *ResultSet) TotalSize() int {
	if rs == nil {
		return 0
	}
	total := 0
	for _, r := range rs.Results {
		total += r.Size
	}
	return total
}
