package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/gridcrop/internal/model"
)

// JSONWriter outputs the summary as JSON.
// Result image bytes are never included; see model.Result.
type JSONWriter struct {
	baseWriter

	// version is stamped into the output.
	version string

	// indent enables pretty-printed output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indented output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion sets the version recorded in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the document JSONWriter emits.
type JSONReport struct {
	// Version is the gridcrop version that produced the report.
	Version string `json:"version,omitempty"`

	// Summary holds the batch totals.
	Summary Summary `json:"summary"`

	// Jobs are the per-file results in input order.
	Jobs []*model.Job `json:"jobs"`
}

// Write outputs jobs wrapped in a JSONReport.
func (w *JSONWriter) Write(jobs []*model.Job) (int, error) {
	kept := make([]*model.Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			kept = append(kept, job)
		}
	}

	doc := JSONReport{
		Version: w.version,
		Summary: Summarize(kept),
		Jobs:    kept,
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
