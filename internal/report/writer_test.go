package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/gridcrop/internal/model"
)

// createTestJobs returns a successful split job and a failed crop job.
func createTestJobs() []*model.Job {
	ok := model.NewJob("photos/cat.jpg", model.JobOptions{
		Mode: model.ModeSplit,
		Grid: model.GridSpec{Rows: 1, Cols: 2},
	})
	ok.Format = "jpeg"
	ok.Width, ok.Height = 200, 100
	ok.BackgroundRemoved = true
	ok.Metadata = &model.ImageMetadata{Make: "Canon", Model: "EOS", HasGPS: true, TagCount: 4}
	ok.Results = model.NewResultSet(ok.Options.Grid,
		[][]byte{make([]byte, 1500), make([]byte, 500)},
		[][2]int{{100, 100}, {100, 100}},
	)
	ok.OutputDir = "output/cat"
	ok.Written = []string{"output/cat/crop_1.png", "output/cat/crop_2.png"}
	ok.Duration = time.Second

	failed := model.NewJob("notes.txt", model.JobOptions{Mode: model.ModeCrop})
	failed.Error = model.ErrInvalidInput
	failed.ErrorMessage = model.ErrInvalidInput.Error()

	return []*model.Job{ok, failed}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("counts outcomes and output", func(t *testing.T) {
		t.Parallel()

		jobs := createTestJobs()
		cancelled := model.NewJob("late.png", model.JobOptions{})
		cancelled.TimedOut = true
		jobs = append(jobs, cancelled, nil)

		s := Summarize(jobs)
		if s.Total != 3 || s.Succeeded != 1 || s.Failed != 1 || s.TimedOut != 1 {
			t.Errorf("unexpected counts: %+v", s)
		}
		if s.Images != 2 || s.Bytes != 2000 {
			t.Errorf("expected 2 images of 2000 bytes, got %d / %d", s.Images, s.Bytes)
		}
	})
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes one block per job and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestJobs()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"photos/cat.jpg [ok]",
			"jpeg 200x100",
			"split 1x2",
			"Background: removed",
			"2 image(s), 2.0 kB",
			"notes.txt [failed]",
			"invalid input",
			"2 file(s): 1 ok, 1 failed, 0 cancelled",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("verbose mode lists paths and camera", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestJobs()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"Canon EOS", "GPS", "[+] output/cat/crop_2.png"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes table, alert and results", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestJobs()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# gridcrop Report",
			"`photos/cat.jpg`",
			"200x100",
			"[!CAUTION]",
			"1 of 2 file(s) failed.",
			"```mermaid",
			"crop_1.png (100x100",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
	})

	t.Run("all successful jobs get a tip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestJobs()[:1]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Errorf("expected a tip alert\n%s", output)
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no chart for a single job")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON with summary and version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.Write(append(createTestJobs(), nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc JSONReport
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %q", doc.Version)
		}
		if len(doc.Jobs) != 2 || doc.Summary.Total != 2 {
			t.Errorf("expected 2 jobs, got %d (summary %d)", len(doc.Jobs), doc.Summary.Total)
		}
		if doc.Jobs[0].Results.Results[0].Data != nil {
			t.Error("expected image bytes to be omitted")
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestJobs()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected a single line")
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestJobs()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"summary\"") {
			t.Error("expected indented output")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(createTestJobs())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
		if n != text.Len()+js.Len() {
			t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		n, err := NewMultiWriter().Write(createTestJobs())
		if err != nil || n != 0 {
			t.Errorf("expected 0, nil; got %d, %v", n, err)
		}
	})
}

func TestSaveResultSet(t *testing.T) {
	t.Parallel()

	t.Run("writes files in result order", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "out")
		rs := model.NewResultSet(model.GridSpec{Rows: 1, Cols: 2},
			[][]byte{[]byte("first"), []byte("second")}, nil)

		paths, err := SaveResultSet(dir, rs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 2 || filepath.Base(paths[1]) != "crop_2.png" {
			t.Fatalf("unexpected paths: %v", paths)
		}
		data, err := os.ReadFile(paths[1])
		if err != nil {
			t.Fatalf("failed to read result: %v", err)
		}
		if string(data) != "second" {
			t.Errorf("expected second result, got %q", data)
		}
	})

	t.Run("empty set returns ErrNoResults", func(t *testing.T) {
		t.Parallel()

		if _, err := SaveResultSet(t.TempDir(), nil); !errors.Is(err, ErrNoResults) {
			t.Errorf("expected ErrNoResults, got %v", err)
		}
	})
}
