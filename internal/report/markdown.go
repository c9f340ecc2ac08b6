package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/gridcrop/internal/model"
)

// MarkdownWriter outputs the summary as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs a jobs table, an outcome chart and per-file result lists.
func (w *MarkdownWriter) Write(jobs []*model.Job) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := Summarize(jobs)

	md.H1("gridcrop Report")
	md.PlainText("")

	w.writeJobsTable(md, jobs)
	w.writeAlert(md, summary)
	if summary.Total > 1 {
		w.writePieChart(md, summary)
	}
	w.writeResults(md, jobs)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [gridcrop](https://github.com/nao1215/gridcrop)*")

	return len(md.String()), md.Build()
}

// writeJobsTable writes one row per job.
func (w *MarkdownWriter) writeJobsTable(md *markdown.Markdown, jobs []*model.Job) {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		size := "-"
		if job.Width > 0 {
			size = strconv.Itoa(job.Width) + "x" + strconv.Itoa(job.Height)
		}
		bg := "no"
		if job.BackgroundRemoved {
			bg = "yes"
		}
		rows = append(rows, []string{
			"`" + job.Source + "`",
			size,
			operation(job),
			bg,
			strconv.Itoa(job.ResultCount()),
			humanize.Bytes(uint64(job.Results.TotalSize())), //nolint:gosec // sizes are non-negative
			statusText(job),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Size", "Operation", "Background removed", "Images", "Output", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status cell for a job.
func statusText(job *model.Job) string {
	switch {
	case job.TimedOut:
		return "⚠️ Cancelled"
	case job.Failed():
		return "❌ " + truncateString(job.ErrorMessage, 60)
	default:
		return "✅ OK"
	}
}

// writeAlert writes an alert summarising the batch outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, s Summary) {
	switch {
	case s.Failed > 0:
		md.Cautionf("%d of %d file(s) failed.", s.Failed, s.Total)
	case s.TimedOut > 0:
		md.Warningf("%d of %d file(s) were cancelled before finishing.", s.TimedOut, s.Total)
	case s.Total == 0:
		md.Note("No files were processed.")
	default:
		md.Tip("All files processed: " + strconv.Itoa(s.Images) + " image(s), " +
			humanize.Bytes(uint64(s.Bytes)) + ".") //nolint:gosec // sizes are non-negative
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of job outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Job Outcomes"),
		piechart.WithShowData(true),
	)

	if s.Succeeded > 0 {
		chart.LabelAndIntValue("OK", uint64(s.Succeeded)) //nolint:gosec // counts are non-negative
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed)) //nolint:gosec // counts are non-negative
	}
	if s.TimedOut > 0 {
		chart.LabelAndIntValue("Cancelled", uint64(s.TimedOut)) //nolint:gosec // counts are non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResults lists the files produced for each job.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, jobs []*model.Job) {
	md.H2("Results")
	md.PlainText("")

	for _, job := range jobs {
		if job == nil || job.Results.Len() == 0 {
			continue
		}
		md.H3(job.Source)
		md.PlainText("")

		items := make([]string, 0, job.Results.Len())
		for _, r := range job.Results.Results {
			items = append(items, r.Filename+" ("+strconv.Itoa(r.Width)+"x"+strconv.Itoa(r.Height)+", "+
				humanize.Bytes(uint64(r.Size))+")") //nolint:gosec // sizes are non-negative
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
