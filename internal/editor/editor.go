package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/gridcrop/internal/grid"
	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/notify"
	"github.com/nao1215/gridcrop/internal/progress"
	"github.com/nao1215/gridcrop/internal/raster"
	"github.com/nao1215/gridcrop/internal/removal"
	"github.com/nao1215/gridcrop/internal/session"
)

// Editor is one editing session with its collaborators. Each input file gets
// its own Editor.
type Editor struct {
	session  *session.Session
	progress *progress.Controller
	notifier *notify.Notifier
	messages *notify.Messages
	remover  removal.Service
	logger   *slog.Logger

	compression png.CompressionLevel
	workers     int

	busy atomic.Bool

	mu      sync.Mutex
	results *model.ResultSet
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSession replaces the image session.
func WithSession(s *session.Session) Option {
	return func(e *Editor) {
		if s != nil {
			e.session = s
		}
	}
}

// WithProgress replaces the progress controller.
func WithProgress(c *progress.Controller) Option {
	return func(e *Editor) {
		if c != nil {
			e.progress = c
		}
	}
}

// WithNotifier replaces the notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(e *Editor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithMessages selects the notification language.
func WithMessages(m *notify.Messages) Option {
	return func(e *Editor) {
		if m != nil {
			e.messages = m
		}
	}
}

// WithRemover sets the background removal service.
func WithRemover(s removal.Service) Option {
	return func(e *Editor) {
		if s != nil {
			e.remover = s
		}
	}
}

// WithCompression sets the PNG compression level of results.
func WithCompression(level png.CompressionLevel) Option {
	return func(e *Editor) {
		e.compression = level
	}
}

// WithEncodeWorkers limits how many grid cells are encoded at once.
func WithEncodeWorkers(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an editor with an empty session. Without WithRemover the
// offline remover is used.
func New(opts ...Option) *Editor {
	e := &Editor{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		compression: png.DefaultCompression,
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == nil {
		e.session = session.New(session.WithLogger(e.logger))
	}
	if e.progress == nil {
		e.progress = progress.NewController(nil, progress.WithLogger(e.logger))
	}
	if e.notifier == nil {
		e.notifier = notify.New(nil, notify.WithLogger(e.logger))
	}
	if e.messages == nil {
		e.messages = notify.NewMessages("en")
	}
	if e.remover == nil {
		e.remover = removal.NewLocal(removal.DefaultLocalOptions(), e.logger)
	}
	return e
}

// LoadImage loads data as the image being edited. A non-image MIME type is
// rejected with model.ErrInvalidInput and leaves any loaded image in place.
func (e *Editor) LoadImage(ctx context.Context, data []byte, mimeType string) error {
	if err := e.session.Load(ctx, data, mimeType); err != nil {
		e.fail(err)
		return err
	}
	e.clearResults()
	e.notifier.Success(e.messages.Sprintf(notify.MsgImageLoaded))
	return nil
}

// Rotate turns the crop surface clockwise by degrees. It does nothing when
// no image is loaded.
func (e *Editor) Rotate(degrees float64) {
	e.session.Rotate(degrees)
}

// Reset restores the initial crop box and rotation.
func (e *Editor) Reset() {
	e.session.ResetTransform()
	e.notifier.Info(e.messages.Sprintf(notify.MsgTransformReset))
}

// SetCropBox moves or resizes the crop box, in canvas coordinates.
func (e *Editor) SetCropBox(r image.Rectangle) error {
	if err := e.session.SetCropBox(r); err != nil {
		e.fail(err)
		return err
	}
	return nil
}

// SelectAll makes the crop box cover the whole canvas.
func (e *Editor) SelectAll() error {
	if err := e.session.SelectAll(); err != nil {
		e.fail(err)
		return err
	}
	return nil
}

// RemoveBackground sends the current crop to the remover and loads the
// result as the new image with a fresh crop surface.
//
// The progress indicator runs for the duration of the call and is always
// cleaned up. A second call while one is running fails with model.ErrBusy.
func (e *Editor) RemoveBackground(ctx context.Context) error {
	if !e.busy.CompareAndSwap(false, true) {
		e.fail(model.ErrBusy)
		return model.ErrBusy
	}
	defer e.busy.Store(false)

	cropped, ok := e.session.ExtractCroppedRaster()
	if !ok {
		e.fail(model.ErrNoImage)
		return model.ErrNoImage
	}

	e.progress.Begin()
	defer e.progress.CancelAll()

	err := e.removeBackground(ctx, cropped)
	if err != nil {
		e.logger.Warn("background removal failed",
			slog.String("remover", e.remover.Name()),
			slog.String("error", err.Error()))
		e.notifier.Error(e.messages.Sprintf(notify.MsgBackgroundFailed))
		return err
	}
	e.clearResults()
	e.notifier.Success(e.messages.Sprintf(notify.MsgBackgroundRemoved))
	return nil
}

func (e *Editor) removeBackground(ctx context.Context, cropped image.Image) error {
	input, err := raster.EncodePNG(cropped, e.compression)
	if err != nil {
		return err
	}

	out, err := e.remover.RemoveBackground(ctx, input, e.onRemovalProgress)
	if err != nil {
		if errors.Is(err, model.ErrProcessing) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", model.ErrProcessing, e.remover.Name(), err)
	}
	e.progress.Complete()

	return e.session.ReplaceWithProcessedRaster(ctx, out)
}

func (e *Editor) onRemovalProgress(stage string, current, total int64) {
	switch {
	case removal.IsFetchStage(stage):
		e.progress.OnFetchProgress(current, total)
	case removal.IsComputeStage(stage):
		e.progress.OnComputeStarted()
	}
}

// Crop renders the crop region as a single result.
func (e *Editor) Crop(ctx context.Context) (*model.ResultSet, error) {
	cropped, ok := e.session.ExtractCroppedRaster()
	if !ok {
		e.fail(model.ErrNoImage)
		return nil, model.ErrNoImage
	}
	return e.produce(ctx, model.GridSpec{}, []image.Image{cropped})
}

// SplitGrid cuts the crop region into rows x cols results in row-major
// order. Invalid grids are rejected before the image is touched.
func (e *Editor) SplitGrid(ctx context.Context, rows, cols int) (*model.ResultSet, error) {
	spec, err := model.NewGridSpec(rows, cols)
	if err != nil {
		e.fail(err)
		return nil, err
	}

	cropped, ok := e.session.ExtractCroppedRaster()
	if !ok {
		e.fail(model.ErrNoImage)
		return nil, model.ErrNoImage
	}

	cells, err := grid.Split(cropped, spec)
	if err != nil {
		e.fail(err)
		return nil, err
	}
	return e.produce(ctx, spec, cells)
}

// produce encodes images in parallel and stores them as the current result
// set, replacing the previous one.
func (e *Editor) produce(ctx context.Context, spec model.GridSpec, images []image.Image) (*model.ResultSet, error) {
	encoded := make([][]byte, len(images))
	sizes := make([][2]int, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, img := range images {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := raster.EncodePNG(img, e.compression)
			if err != nil {
				return err
			}
			encoded[i] = data
			sizes[i] = [2]int{img.Bounds().Dx(), img.Bounds().Dy()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.fail(err)
		return nil, err
	}

	rs := model.NewResultSet(spec, encoded, sizes)
	e.mu.Lock()
	e.results = rs
	e.mu.Unlock()

	e.notifier.Success(e.messages.Sprintf(notify.MsgImagesCreated, rs.Len()))
	return rs, nil
}

// Results returns the latest result set, or nil.
func (e *Editor) Results() *model.ResultSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results
}

// NewImage discards the loaded image and results so another file can be
// loaded.
func (e *Editor) NewImage() {
	e.session.Close()
	e.clearResults()
}

// Info describes the loaded image.
func (e *Editor) Info() (raster.Info, bool) {
	return e.session.Info()
}

// CropBox returns the current crop box.
func (e *Editor) CropBox() (image.Rectangle, bool) {
	return e.session.CropBox()
}

// State returns the session state.
func (e *Editor) State() session.State {
	return e.session.State()
}

// Progress returns the progress controller.
func (e *Editor) Progress() *progress.Controller {
	return e.progress
}

// Close releases the session, stops any progress ramp and pending
// notification timers.
func (e *Editor) Close() {
	e.progress.CancelAll()
	e.session.Close()
	e.notifier.Close()
}

func (e *Editor) clearResults() {
	e.mu.Lock()
	e.results = nil
	e.mu.Unlock()
}

// fail shows the notification matching err.
func (e *Editor) fail(err error) {
	e.notifier.Error(e.messages.Sprintf(messageFor(err)))
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return notify.MsgNotAnImage
	case errors.Is(err, model.ErrInvalidGrid):
		return notify.MsgInvalidGrid
	case errors.Is(err, model.ErrNoImage):
		return notify.MsgNoImage
	case errors.Is(err, model.ErrBusy):
		return notify.MsgBusy
	case errors.Is(err, model.ErrLoadPending):
		return notify.MsgLoadPending
	default:
		return notify.MsgProcessingFailed
	}
}
