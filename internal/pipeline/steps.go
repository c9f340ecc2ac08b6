package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/raster"
	"github.com/nao1215/gridcrop/internal/report"
)

// DefaultMaxFileSize limits how much of an input file LoadStep reads.
const DefaultMaxFileSize int64 = 256 << 20

// Editor is the part of *editor.Editor the steps drive.
type Editor interface {
	LoadImage(ctx context.Context, data []byte, mimeType string) error
	Info() (raster.Info, bool)
	Rotate(degrees float64)
	SetCropBox(r image.Rectangle) error
	SelectAll() error
	RemoveBackground(ctx context.Context) error
	Crop(ctx context.Context) (*model.ResultSet, error)
	SplitGrid(ctx context.Context, rows, cols int) (*model.ResultSet, error)
}

// LoadStep reads the input file and loads it into the editor.
// It also records the MIME type, content hash and EXIF summary in the job.
type LoadStep struct {
	editor      Editor
	maxFileSize int64
	logger      *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithMaxFileSize sets the largest input file LoadStep accepts.
func WithMaxFileSize(n int64) LoadStepOption {
	return func(s *LoadStep) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates a load step for ed.
func NewLoadStep(ed Editor, opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{
		editor:      ed,
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do reads job.Source unless job.Data is already set, then loads it.
func (s *LoadStep) Do(ctx context.Context, job *model.Job) error {
	if job.Data == nil {
		data, err := s.readFile(job.Source)
		if err != nil {
			return err
		}
		job.Data = data
	}
	// The editor keeps its own decoded copy.
	defer func() { job.Data = nil }()

	job.MIMEType = raster.DetectMIME(job.Source, job.Data)
	job.SourceHash = raster.Hash(job.Data)

	meta, err := raster.ReadMetadata(job.Data)
	if err != nil {
		s.logger.Debug("failed to read EXIF", "source", job.Source, "error", err)
	}
	job.Metadata = meta

	if err := s.editor.LoadImage(ctx, job.Data, job.MIMEType); err != nil {
		return err
	}

	if info, ok := s.editor.Info(); ok {
		job.Format = info.Format
		job.Width = info.Width
		job.Height = info.Height
	}
	return nil
}

// readFile reads path, refusing files larger than maxFileSize.
func (s *LoadStep) readFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // input paths come from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	data, err := io.ReadAll(io.LimitReader(f, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", model.ErrInvalidInput, path, s.maxFileSize)
	}
	return data, nil
}

// RotateStep turns the crop surface by Options.Rotation degrees.
type RotateStep struct {
	editor Editor
}

// NewRotateStep creates a rotate step for ed.
func NewRotateStep(ed Editor) *RotateStep {
	return &RotateStep{editor: ed}
}

// Name returns the step name.
func (s *RotateStep) Name() string {
	return "rotate"
}

// Skip reports whether no rotation was requested.
func (s *RotateStep) Skip(job *model.Job) bool {
	return job.Options.Rotation == 0
}

// Do rotates the crop surface.
func (s *RotateStep) Do(_ context.Context, job *model.Job) error {
	s.editor.Rotate(job.Options.Rotation)
	return nil
}

// CropBoxStep places an explicit crop box. Without one the default
// centered box stays.
type CropBoxStep struct {
	editor Editor
}

// NewCropBoxStep creates a crop box step for ed.
func NewCropBoxStep(ed Editor) *CropBoxStep {
	return &CropBoxStep{editor: ed}
}

// Name returns the step name.
func (s *CropBoxStep) Name() string {
	return "crop_box"
}

// Skip reports whether no box was given.
func (s *CropBoxStep) Skip(job *model.Job) bool {
	return job.Options.Box.Empty()
}

// Do sets the crop box.
func (s *CropBoxStep) Do(_ context.Context, job *model.Job) error {
	return s.editor.SetCropBox(job.Options.Box)
}

// RemoveBackgroundStep replaces the image with its background-removed crop.
// The new image already is the crop, so the box is widened to cover all of
// it; otherwise the next crop would shrink it a second time.
type RemoveBackgroundStep struct {
	editor Editor
}

// NewRemoveBackgroundStep creates a background removal step for ed.
func NewRemoveBackgroundStep(ed Editor) *RemoveBackgroundStep {
	return &RemoveBackgroundStep{editor: ed}
}

// Name returns the step name.
func (s *RemoveBackgroundStep) Name() string {
	return "remove_background"
}

// Skip reports whether background removal was not requested.
func (s *RemoveBackgroundStep) Skip(job *model.Job) bool {
	return !job.Options.RemoveBackground
}

// Do runs the remover and selects the whole result.
func (s *RemoveBackgroundStep) Do(ctx context.Context, job *model.Job) error {
	if err := s.editor.RemoveBackground(ctx); err != nil {
		return err
	}
	job.BackgroundRemoved = true

	if info, ok := s.editor.Info(); ok {
		job.Width = info.Width
		job.Height = info.Height
	}
	return s.editor.SelectAll()
}

// CropStep produces the crop region as a single image.
type CropStep struct {
	editor Editor
}

// NewCropStep creates a crop step for ed.
func NewCropStep(ed Editor) *CropStep {
	return &CropStep{editor: ed}
}

// Name returns the step name.
func (s *CropStep) Name() string {
	return "crop"
}

// Skip reports whether the job splits instead.
func (s *CropStep) Skip(job *model.Job) bool {
	return job.Options.Mode == model.ModeSplit
}

// Do crops and stores the result set in the job.
func (s *CropStep) Do(ctx context.Context, job *model.Job) error {
	rs, err := s.editor.Crop(ctx)
	if err != nil {
		return err
	}
	job.Results = rs
	return nil
}

// SplitStep cuts the crop region into Options.Grid cells.
type SplitStep struct {
	editor Editor
}

// NewSplitStep creates a split step for ed.
func NewSplitStep(ed Editor) *SplitStep {
	return &SplitStep{editor: ed}
}

// Name returns the step name.
func (s *SplitStep) Name() string {
	return "split"
}

// Skip reports whether the job is a plain crop.
func (s *SplitStep) Skip(job *model.Job) bool {
	return job.Options.Mode != model.ModeSplit
}

// Do splits and stores the result set in the job.
func (s *SplitStep) Do(ctx context.Context, job *model.Job) error {
	rs, err := s.editor.SplitGrid(ctx, job.Options.Grid.Rows, job.Options.Grid.Cols)
	if err != nil {
		return err
	}
	job.Results = rs
	return nil
}

// WriteStep saves the job's results under the output directory.
type WriteStep struct {
	baseDir  string
	perInput bool
	logger   *slog.Logger
}

// WriteStepOption configures a WriteStep.
type WriteStepOption func(*WriteStep)

// WithPerInputDir writes each job into a subdirectory named after its
// input file, so batch results do not overwrite each other.
func WithPerInputDir(perInput bool) WriteStepOption {
	return func(s *WriteStep) {
		s.perInput = perInput
	}
}

// WithWriteLogger sets a custom logger for the write step.
func WithWriteLogger(logger *slog.Logger) WriteStepOption {
	return func(s *WriteStep) {
		s.logger = logger
	}
}

// NewWriteStep creates a write step rooted at baseDir.
func NewWriteStep(baseDir string, opts ...WriteStepOption) *WriteStep {
	s := &WriteStep{
		baseDir: baseDir,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes the result files and records their paths.
func (s *WriteStep) Do(_ context.Context, job *model.Job) error {
	dir := s.OutputDir(job.Source)
	paths, err := report.SaveResultSet(dir, job.Results)
	job.OutputDir = dir
	job.Written = paths
	if err != nil {
		return err
	}
	s.logger.Debug("results written", "source", job.Source, "dir", dir, "files", len(paths))
	return nil
}

// OutputDir returns the directory results for source are written to.
func (s *WriteStep) OutputDir(source string) string {
	if !s.perInput {
		return s.baseDir
	}
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "image"
	}
	return filepath.Join(s.baseDir, stem)
}

// Steps returns the full step list for one job, bound to ed.
func Steps(ed Editor, write *WriteStep, loadOpts ...LoadStepOption) []Step {
	return []Step{
		NewLoadStep(ed, loadOpts...),
		NewRotateStep(ed),
		NewCropBoxStep(ed),
		NewRemoveBackgroundStep(ed),
		NewCropStep(ed),
		NewSplitStep(ed),
		write,
	}
}
