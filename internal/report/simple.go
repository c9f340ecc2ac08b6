package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nao1215/gridcrop/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
// Plain text without colour so it can be piped to files.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-file details.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds written paths and EXIF details to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one block per job followed by the batch totals.
func (w *SimpleWriter) Write(jobs []*model.Job) (int, error) {
	var sb strings.Builder

	for _, job := range jobs {
		if job == nil {
			continue
		}
		w.writeJob(&sb, job)
	}
	w.writeSummary(&sb, Summarize(jobs))

	return w.output.Write([]byte(sb.String()))
}

// writeJob writes the block for one input file.
func (w *SimpleWriter) writeJob(sb *strings.Builder, job *model.Job) {
	sb.WriteString(fmt.Sprintf("%s [%s]\n", job.Source, status(job)))

	if job.Width > 0 {
		sb.WriteString(fmt.Sprintf("  Source:     %s %dx%d\n", job.Format, job.Width, job.Height))
	}
	sb.WriteString(fmt.Sprintf("  Operation:  %s\n", operation(job)))
	if job.BackgroundRemoved {
		sb.WriteString("  Background: removed\n")
	}
	if job.Results.Len() > 0 {
		sb.WriteString(fmt.Sprintf("  Output:     %d image(s), %s\n",
			job.Results.Len(), humanize.Bytes(uint64(job.Results.TotalSize())))) //nolint:gosec // sizes are non-negative
	}
	if job.OutputDir != "" && len(job.Written) > 0 {
		sb.WriteString(fmt.Sprintf("  Directory:  %s\n", job.OutputDir))
	}
	if job.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("  Error:      %s\n", job.ErrorMessage))
	}

	if w.verbose {
		if camera := job.Metadata.Camera(); camera != "" {
			sb.WriteString(fmt.Sprintf("  Camera:     %s\n", camera))
		}
		if job.Metadata != nil && job.Metadata.HasGPS {
			sb.WriteString("  EXIF:       contains GPS tags\n")
		}
		for _, path := range job.Written {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", path))
		}
	}
	sb.WriteString("\n")
}

// writeSummary writes the batch totals.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d file(s): %d ok, %d failed, %d cancelled\n",
		s.Total, s.Succeeded, s.Failed, s.TimedOut))
	sb.WriteString(fmt.Sprintf("%d image(s) written, %s\n",
		s.Images, humanize.Bytes(uint64(s.Bytes)))) //nolint:gosec // sizes are non-negative
}
