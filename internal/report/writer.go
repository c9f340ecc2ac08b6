package report

import (
	"io"
	"time"

	"github.com/nao1215/gridcrop/internal/model"
)

// Writer renders job summaries.
type Writer interface {
	// Write outputs a summary of jobs, in input order.
	// Returns the number of bytes written and any error encountered.
	Write(jobs []*model.Job) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// Our Writer renders jobs rather than raw bytes, so io.MultiWriter does not
// fit.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer and stops on the first error.
func (m *MultiWriter) Write(jobs []*model.Job) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(jobs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Summary aggregates a batch of jobs.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	TimedOut  int           `json:"timed_out"`
	Images    int           `json:"images"`
	Bytes     int           `json:"bytes"`
	Duration  time.Duration `json:"duration"`
}

// Summarize counts outcomes across jobs. Nil entries are skipped; they
// belong to jobs that never started because the batch was cancelled.
func Summarize(jobs []*model.Job) Summary {
	var s Summary
	for _, job := range jobs {
		if job == nil {
			continue
		}
		s.Total++
		switch {
		case job.TimedOut:
			s.TimedOut++
		case job.Failed():
			s.Failed++
		default:
			s.Succeeded++
		}
		s.Images += job.ResultCount()
		s.Bytes += job.Results.TotalSize()
		s.Duration += job.Duration
	}
	return s
}

// status returns a one-word job outcome.
func status(job *model.Job) string {
	switch {
	case job.TimedOut:
		return "cancelled"
	case job.Failed():
		return "failed"
	default:
		return "ok"
	}
}

// operation describes what a job produced, such as "crop" or "split 2x3".
func operation(job *model.Job) string {
	if job.Options.Mode == model.ModeSplit {
		return "split " + job.Options.Grid.String()
	}
	return string(model.ModeCrop)
}
