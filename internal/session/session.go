package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/nao1215/gridcrop/internal/cropsurface"
	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/raster"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateEmpty means no raster is loaded.
	StateEmpty State = iota
	// StateLoaded means a raster and its crop surface are active.
	StateLoaded
)

// String returns the lower-case state name.
func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "empty"
}

// Decoder turns encoded bytes into a raster.
type Decoder func(data []byte) (image.Image, raster.Info, error)

// Session is the single owner of the editable raster. It is safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	newSurface SurfaceFactory
	decode     Decoder
	logger     *slog.Logger

	surface CropSurface
	source  image.Image
	info    raster.Info
	pending bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSurfaceFactory replaces the crop surface constructor.
func WithSurfaceFactory(fn SurfaceFactory) Option {
	return func(s *Session) {
		if fn != nil {
			s.newSurface = fn
		}
	}
}

// WithDecoder replaces the raster decoder.
func WithDecoder(fn Decoder) Option {
	return func(s *Session) {
		if fn != nil {
			s.decode = fn
		}
	}
}

// WithMaxPixels sets the pixel limit of the default decoder.
func WithMaxPixels(maxPixels int) Option {
	return func(s *Session) {
		s.decode = func(data []byte) (image.Image, raster.Info, error) {
			return raster.Decode(data, maxPixels)
		}
	}
}

// New creates an empty session. By default rasters are decoded with
// raster.Decode and surfaces use cropsurface.DefaultOptions.
func New(opts ...Option) *Session {
	s := &Session{
		newSurface: NewSurfaceFactory(cropsurface.DefaultOptions()),
		decode: func(data []byte) (image.Image, raster.Info, error) {
			return raster.Decode(data, raster.DefaultMaxPixels)
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load decodes data and makes it the active raster.
//
// A mimeType that is not image/* fails with model.ErrInvalidInput before
// anything else happens. Decoding runs on its own goroutine and Load waits
// for it or for ctx. If decoding fails the previous raster stays active.
// Load fails with model.ErrLoadPending while another Load or Replace is
// still decoding.
func (s *Session) Load(ctx context.Context, data []byte, mimeType string) error {
	if !raster.IsImageMIME(mimeType) {
		return fmt.Errorf("%w: media type %q", model.ErrInvalidInput, mimeType)
	}
	return s.swap(ctx, data)
}

// ReplaceWithProcessedRaster decodes data and swaps it in for the active
// raster, recreating the crop surface. The previous crop box and rotation
// are discarded. It fails with model.ErrNoImage on an empty session.
func (s *Session) ReplaceWithProcessedRaster(ctx context.Context, data []byte) error {
	if s.State() == StateEmpty {
		return model.ErrNoImage
	}
	return s.swap(ctx, data)
}

func (s *Session) swap(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return model.ErrLoadPending
	}
	s.pending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	type decoded struct {
		img  image.Image
		info raster.Info
		err  error
	}
	done := make(chan decoded, 1)
	go func() {
		img, info, err := s.decode(data)
		done <- decoded{img: img, info: info, err: err}
	}()

	var d decoded
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: decode interrupted: %w", model.ErrProcessing, ctx.Err())
	case d = <-done:
	}
	if d.err != nil {
		return d.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The old surface goes before the new one is built. The old raster is
	// kept until the new surface exists so a factory failure can fall back
	// to it.
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}

	surface, err := s.newSurface(d.img)
	if err != nil {
		s.restoreLocked()
		return fmt.Errorf("%w: failed to create crop surface: %w", model.ErrProcessing, err)
	}
	s.surface = surface
	s.source = d.img
	s.info = d.info
	s.logger.Debug("raster loaded",
		slog.String("format", d.info.Format),
		slog.Int("width", d.info.Width),
		slog.Int("height", d.info.Height))
	return nil
}

// Rotate turns the crop surface by degrees. It does nothing when the
// session is empty.
func (s *Session) Rotate(degrees float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return
	}
	s.surface.Rotate(degrees)
}

// ResetTransform restores the initial crop box and rotation. It does
// nothing when the session is empty.
func (s *Session) ResetTransform() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return
	}
	s.surface.Reset()
}

// ExtractCroppedRaster returns the crop region as a standalone raster at
// its natural resolution. The second result is false when the session is
// empty.
func (s *Session) ExtractCroppedRaster() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return nil, false
	}
	img := s.surface.CroppedRaster()
	return img, img != nil
}

// SetCropBox moves or resizes the crop box. It fails with model.ErrNoImage
// on an empty session and with errors.ErrUnsupported when the surface does
// not allow direct box edits.
func (s *Session) SetCropBox(r image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return model.ErrNoImage
	}
	editor, ok := s.surface.(BoxEditor)
	if !ok {
		return errors.ErrUnsupported
	}
	return editor.SetCropBox(r)
}

// SelectAll sets the crop box to the whole canvas.
func (s *Session) SelectAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return model.ErrNoImage
	}
	editor, ok := s.surface.(BoxEditor)
	if !ok {
		return errors.ErrUnsupported
	}
	return editor.SetCropBox(image.Rectangle{Max: editor.CanvasSize()})
}

// CropBox returns the current crop box when the surface exposes one.
func (s *Session) CropBox() (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	editor, ok := s.surface.(BoxEditor)
	if !ok {
		return image.Rectangle{}, false
	}
	return editor.CropBox(), true
}

// Info describes the active raster.
func (s *Session) Info() (raster.Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info, s.surface != nil
}

// State returns StateLoaded when a crop surface is active.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		return StateEmpty
	}
	return StateLoaded
}

// Close destroys the crop surface and returns the session to StateEmpty.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyLocked()
}

// restoreLocked rebuilds a surface over the current raster after a failed
// swap. The transform of the lost surface is not recovered. When no surface
// can be built the session becomes empty.
func (s *Session) restoreLocked() {
	if s.source == nil {
		s.destroyLocked()
		return
	}
	surface, err := s.newSurface(s.source)
	if err != nil {
		s.logger.Warn("failed to restore crop surface", slog.String("error", err.Error()))
		s.destroyLocked()
		return
	}
	s.surface = surface
}

func (s *Session) destroyLocked() {
	if s.surface != nil {
		s.surface.Destroy()
	}
	s.surface = nil
	s.source = nil
	s.info = raster.Info{}
}
