package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/gridcrop/internal/model"
)

// ErrNoResults is returned by SaveResultSet for an empty result set.
var ErrNoResults = errors.New("no results to save")

// SaveResultSet writes every result of rs into dir, creating it if needed.
// It returns the written paths in result order.
func SaveResultSet(dir string, rs *model.ResultSet) ([]string, error) {
	if rs.Len() == 0 {
		return nil, ErrNoResults
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, rs.Len())
	for _, r := range rs.Results {
		path := filepath.Join(dir, r.Filename)
		if err := os.WriteFile(path, r.Data, 0o600); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
