package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/gridcrop/internal/config"
	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/report"
)

// writePNG writes a w x h image with a white border and a red center.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x > w/4 && x < 3*w/4 && y > h/4 && y < 3*h/4 {
				c = color.NRGBA{R: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// writeConfig writes a config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".gridcrop")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// decodeSize returns the dimensions of the PNG at path.
func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	return cfg.Width, cfg.Height
}

// TestNewEditCmds tests the crop and split command creation.
func TestNewEditCmds(t *testing.T) {
	t.Parallel()

	t.Run("crop has the shared edit flags", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		for _, name := range []string{
			config.FlagRotate, "box", config.FlagCropArea, config.FlagRemoveBG,
			config.FlagRemover, config.FlagEndpoint, config.FlagProxy, config.FlagTimeout,
			config.FlagOutputDir, config.FlagBatch, config.FlagLang,
			"config", "profile", "json", "markdown", "report", "no-history",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("crop has no grid flags", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		if cmd.Flags().Lookup(config.FlagRows) != nil {
			t.Error("crop should not have a rows flag")
		}
	})

	t.Run("split has grid flags with defaults", func(t *testing.T) {
		t.Parallel()
		cmd := NewSplitCmd()
		rows := cmd.Flags().Lookup(config.FlagRows)
		cols := cmd.Flags().Lookup(config.FlagCols)
		if rows == nil || cols == nil {
			t.Fatal("expected rows and cols flags")
		}
		if rows.DefValue != "2" || cols.DefValue != "2" {
			t.Errorf("expected 2x2 default, got %sx%s", rows.DefValue, cols.DefValue)
		}
	})

	t.Run("batch flag has shorthand b", func(t *testing.T) {
		t.Parallel()
		flag := NewCropCmd().Flags().Lookup(config.FlagBatch)
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})
}

// TestBuildConfig tests config assembly from flags and the config file.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	emptyConfig := "defaults: {}\n"

	t.Run("builds config with default values", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		path := writeConfig(t, emptyConfig)
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"a.png"}, model.ModeCrop)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Mode != model.ModeCrop {
			t.Errorf("expected crop mode, got %s", cfg.Mode)
		}
		if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "a.png" {
			t.Errorf("unexpected inputs %v", cfg.Inputs)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected batch %d, got %d", config.DefaultBatchSize, cfg.BatchSize)
		}
		if !cfg.SaveToDB {
			t.Error("expected history to be saved by default")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("builds config with edit flags", func(t *testing.T) {
		t.Parallel()
		cmd := NewSplitCmd()
		path := writeConfig(t, emptyConfig)
		err := cmd.ParseFlags([]string{
			"-c", path, "--rows", "3", "--cols", "4", "--rotate", "90",
			"--box", "10,20,30,40", "--remove-bg", "--no-history", "--markdown",
		})
		if err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"a.png"}, model.ModeSplit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Grid.Rows != 3 || cfg.Grid.Cols != 4 {
			t.Errorf("expected 3x4 grid, got %s", cfg.Grid)
		}
		if cfg.Rotation != 90 {
			t.Errorf("expected rotation 90, got %v", cfg.Rotation)
		}
		if cfg.Box != image.Rect(10, 20, 40, 60) {
			t.Errorf("unexpected box %v", cfg.Box)
		}
		if !cfg.RemoveBackground || cfg.SaveToDB || !cfg.MarkdownReport {
			t.Errorf("unexpected toggles: remove=%v save=%v markdown=%v",
				cfg.RemoveBackground, cfg.SaveToDB, cfg.MarkdownReport)
		}
	})

	t.Run("returns error for malformed box", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		path := writeConfig(t, emptyConfig)
		if err := cmd.ParseFlags([]string{"-c", path, "--box", "1,2,3"}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"a.png"}, model.ModeCrop); err == nil {
			t.Error("expected error for malformed box")
		}
	})

	t.Run("applies profile values to unset flags only", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
defaults:
  batch: 2
  timeout: 5s
profiles:
  wall:
    rows: 3
    cols: 3
    output_dir: wall
`)
		cmd := NewSplitCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "--profile", "wall", "--rows", "4"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"a.png"}, model.ModeSplit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Grid.Rows != 4 {
			t.Errorf("flag should win: expected rows 4, got %d", cfg.Grid.Rows)
		}
		if cfg.Grid.Cols != 3 {
			t.Errorf("expected cols 3 from profile, got %d", cfg.Grid.Cols)
		}
		if cfg.OutputDir != "wall" {
			t.Errorf("expected output dir 'wall', got %q", cfg.OutputDir)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected batch 2 from defaults, got %d", cfg.BatchSize)
		}
		if cfg.RemoverTimeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", cfg.RemoverTimeout)
		}
	})

	t.Run("returns error for unknown profile", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		path := writeConfig(t, emptyConfig)
		if err := cmd.ParseFlags([]string{"-c", path, "--profile", "missing"}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"a.png"}, model.ModeCrop)
		if !errors.Is(err, config.ErrUnknownProfile) {
			t.Errorf("expected ErrUnknownProfile, got %v", err)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		path := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"a.png"}, model.ModeCrop)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		t.Parallel()
		cmd := NewCropCmd()
		path := writeConfig(t, "defaults: [not, a, map\n")
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd, []string{"a.png"}, model.ModeCrop); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// runRoot executes the root command with args and returns stdout, stderr
// and the error.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestRunEdit runs crop and split end to end on temporary files.
func TestRunEdit(t *testing.T) {
	t.Parallel()

	t.Run("split writes grid cells and a JSON report", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "photo.png")
		writePNG(t, input, 100, 50)
		outDir := filepath.Join(dir, "out")
		cfgPath := writeConfig(t, "defaults: {}\n")

		stdout, _, err := runRoot(t, "split", "-q", "--no-history", "-c", cfgPath,
			"--rows", "2", "--cols", "2", "-d", outDir, "--json", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rep report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
			t.Fatalf("report is not JSON: %v\n%s", err, stdout)
		}
		if rep.Summary.Total != 1 || rep.Summary.Succeeded != 1 || rep.Summary.Images != 4 {
			t.Errorf("unexpected summary %+v", rep.Summary)
		}

		for i := range 4 {
			path := filepath.Join(outDir, model.ResultFilename(i))
			w, h := decodeSize(t, path)
			if w != 40 || h != 20 {
				t.Errorf("%s: expected 40x20, got %dx%d", path, w, h)
			}
		}
	})

	t.Run("crop removes the background", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "photo.png")
		writePNG(t, input, 60, 60)
		outDir := filepath.Join(dir, "out")
		cfgPath := writeConfig(t, "defaults: {}\n")

		stdout, _, err := runRoot(t, "crop", "-q", "--no-history", "-c", cfgPath,
			"--remove-bg", "-d", outDir, "--json", input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rep report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
			t.Fatalf("report is not JSON: %v", err)
		}
		if len(rep.Jobs) != 1 || !rep.Jobs[0].BackgroundRemoved {
			t.Fatalf("expected one job with background removed, got %+v", rep.Jobs)
		}
		if _, err := os.Stat(filepath.Join(outDir, "crop_1.png")); err != nil {
			t.Errorf("expected crop_1.png: %v", err)
		}
	})

	t.Run("a failed input does not stop the others", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		good := filepath.Join(dir, "good.png")
		writePNG(t, good, 40, 40)
		missing := filepath.Join(dir, "missing.png")
		outDir := filepath.Join(dir, "out")
		cfgPath := writeConfig(t, "defaults: {}\n")

		stdout, stderr, err := runRoot(t, "crop", "--no-history", "-c", cfgPath,
			"-d", outDir, good, missing)
		if !errors.Is(err, errJobsFailed) {
			t.Fatalf("expected errJobsFailed, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(outDir, "good", "crop_1.png")); statErr != nil {
			t.Errorf("expected per-input output for good.png: %v", statErr)
		}
		if !strings.Contains(stdout, "1 ok, 1 failed") {
			t.Errorf("expected summary line in report, got %q", stdout)
		}
		if !strings.Contains(stderr, "missing.png: failed") {
			t.Errorf("expected failure status line, got %q", stderr)
		}
	})

	t.Run("writes the report to a file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "photo.png")
		writePNG(t, input, 30, 30)
		reportPath := filepath.Join(dir, "reports", "run.md")
		cfgPath := writeConfig(t, "defaults: {}\n")

		stdout, _, err := runRoot(t, "crop", "-q", "--no-history", "-c", cfgPath,
			"-d", filepath.Join(dir, "out"), "--markdown", "-o", reportPath, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected nothing on stdout, got %q", stdout)
		}

		content, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "# gridcrop Report") {
			t.Errorf("expected markdown heading, got %q", content)
		}
		info, err := os.Stat(reportPath)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}
	})

	t.Run("records jobs in the history database", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		input := filepath.Join(dir, "photo.png")
		writePNG(t, input, 30, 30)
		dbDir := filepath.Join(dir, "db")
		cfgPath := writeConfig(t, "defaults: {}\n")

		_, _, err := runRoot(t, "crop", "-q", "-c", cfgPath, "--db-dir", dbDir,
			"-d", filepath.Join(dir, "out"), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out, _, err := runRoot(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "photo.png") {
			t.Errorf("expected history to list photo.png, got %q", out)
		}
		if !strings.Contains(out, "Job history (1 of 1)") {
			t.Errorf("expected history heading, got %q", out)
		}
	})

	t.Run("rejects an invalid configuration", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeConfig(t, "defaults: {}\n")
		_, _, err := runRoot(t, "split", "-c", cfgPath, "--rows", "0", "a.png")
		if !errors.Is(err, model.ErrInvalidGrid) {
			t.Errorf("expected ErrInvalidGrid, got %v", err)
		}
	})

	t.Run("rejects a run without inputs", func(t *testing.T) {
		t.Parallel()
		cfgPath := writeConfig(t, "defaults: {}\n")
		_, _, err := runRoot(t, "crop", "-c", cfgPath)
		if !errors.Is(err, config.ErrNoInput) {
			t.Errorf("expected ErrNoInput, got %v", err)
		}
	})
}
