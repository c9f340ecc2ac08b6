package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/notify"
	"github.com/nao1215/gridcrop/internal/progress"
	"github.com/nao1215/gridcrop/internal/removal"
	"github.com/nao1215/gridcrop/internal/session"
)

// noteSink records notifications.
type noteSink struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (s *noteSink) Display(n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

func (s *noteSink) Dismiss(notify.Notification) {}

func (s *noteSink) last() notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notes) == 0 {
		return notify.Notification{}
	}
	return s.notes[len(s.notes)-1]
}

// percentSink records progress output.
type percentSink struct {
	mu       sync.Mutex
	percents []int
	hidden   int
}

func (s *percentSink) Show() {}

func (s *percentSink) SetPercent(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percents = append(s.percents, p)
}

func (s *percentSink) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden++
}

// fakeRemover reports fetch and compute progress and returns output.
type fakeRemover struct {
	out     []byte
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeRemover) Name() string { return "fake" }

func (f *fakeRemover) RemoveBackground(ctx context.Context, input []byte, progress removal.ProgressFunc) ([]byte, error) {
	if f.started != nil {
		close(f.started)
	}
	progress("fetch:model", 20, 100)
	progress("compute:inference", 0, 0)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	editor   *Editor
	notes    *noteSink
	percents *percentSink
}

func newFixture(t *testing.T, remover *fakeRemover) *fixture {
	t.Helper()

	notes := &noteSink{}
	percents := &percentSink{}
	opts := []Option{
		WithNotifier(notify.New(notes)),
		WithProgress(progress.NewController(percents)),
		WithEncodeWorkers(2),
	}
	if remover != nil {
		opts = append(opts, WithRemover(remover))
	}
	e := New(opts...)
	t.Cleanup(e.Close)
	return &fixture{editor: e, notes: notes, percents: percents}
}

func (f *fixture) load(t *testing.T, w, h int) {
	t.Helper()
	if err := f.editor.LoadImage(context.Background(), pngOf(t, w, h), "image/png"); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
}

// TestEditorLoad tests loading through the editor.
func TestEditorLoad(t *testing.T) {
	t.Parallel()

	t.Run("success is notified", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 10, 10)
		if n := f.notes.last(); n.Level != notify.LevelSuccess || n.Message != notify.MsgImageLoaded {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("non-image is notified and keeps the session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 10, 10)
		err := f.editor.LoadImage(context.Background(), []byte("text"), "text/plain")
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.notes.last(); n.Level != notify.LevelError || n.Message != notify.MsgNotAnImage {
			t.Errorf("unexpected notification %+v", n)
		}
		if f.editor.State() != session.StateLoaded {
			t.Error("expected the previous image to stay loaded")
		}
	})
}

// TestEditorCropAndSplit tests result production.
func TestEditorCropAndSplit(t *testing.T) {
	t.Parallel()

	t.Run("crop yields one result named crop_1.png", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 100, 50)
		rs, err := f.editor.Crop(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rs.Len() != 1 || rs.Results[0].Filename != "crop_1.png" {
			t.Fatalf("unexpected results %+v", rs)
		}
		if rs.Results[0].Width != 80 || rs.Results[0].Height != 40 {
			t.Errorf("expected 80x40, got %dx%d", rs.Results[0].Width, rs.Results[0].Height)
		}
		if n := f.notes.last(); n.Message != "Created 1 images" {
			t.Errorf("unexpected notification %q", n.Message)
		}
	})

	t.Run("split yields row-major named cells", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 100, 50)
		if err := f.editor.SelectAll(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rs, err := f.editor.SplitGrid(context.Background(), 2, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rs.Len() != 6 {
			t.Fatalf("expected 6 results, got %d", rs.Len())
		}
		for i, r := range rs.Results {
			if r.Filename != model.ResultFilename(i) || r.Width != 33 || r.Height != 25 {
				t.Errorf("result %d: unexpected %+v", i, r)
			}
			img, err := png.Decode(bytes.NewReader(r.Data))
			if err != nil || img.Bounds().Size() != image.Pt(33, 25) {
				t.Errorf("result %d: bad png (%v)", i, err)
			}
		}
		if f.editor.Results() != rs {
			t.Error("expected the result set to be stored")
		}
	})

	t.Run("invalid grid is rejected without touching results", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 20, 20)
		prev, err := f.editor.Crop(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, rc := range [][2]int{{0, 3}, {2, 0}} {
			rs, err := f.editor.SplitGrid(context.Background(), rc[0], rc[1])
			if !errors.Is(err, model.ErrInvalidGrid) || rs != nil {
				t.Errorf("%v: expected ErrInvalidGrid, got %v", rc, err)
			}
			if n := f.notes.last(); n.Message != notify.MsgInvalidGrid {
				t.Errorf("unexpected notification %q", n.Message)
			}
		}
		if f.editor.Results() != prev {
			t.Error("expected previous results to remain")
		}
	})

	t.Run("grid finer than the crop is rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 4, 4)
		_, err := f.editor.SplitGrid(context.Background(), 1, 10)
		if !errors.Is(err, model.ErrInvalidGrid) {
			t.Errorf("expected ErrInvalidGrid, got %v", err)
		}
	})

	t.Run("huge grid is rejected and the editor stays usable", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 10, 10)
		_, err := f.editor.SplitGrid(context.Background(), math.MaxInt32, math.MaxInt32)
		if !errors.Is(err, model.ErrInvalidGrid) {
			t.Fatalf("expected ErrInvalidGrid, got %v", err)
		}
		if n := f.notes.last(); n.Level != notify.LevelError {
			t.Errorf("expected an error notification, got %+v", n)
		}
		rs, err := f.editor.SplitGrid(context.Background(), 2, 2)
		if err != nil || rs.Len() != 4 {
			t.Errorf("expected a 2x2 split afterwards, got %v, %v", rs, err)
		}
	})

	t.Run("nothing loaded", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		if _, err := f.editor.Crop(context.Background()); !errors.Is(err, model.ErrNoImage) {
			t.Errorf("expected ErrNoImage, got %v", err)
		}
		if _, err := f.editor.SplitGrid(context.Background(), 1, 1); !errors.Is(err, model.ErrNoImage) {
			t.Errorf("expected ErrNoImage, got %v", err)
		}
	})

	t.Run("new image clears the session and results", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, nil)
		f.load(t, 10, 10)
		if _, err := f.editor.Crop(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.editor.NewImage()
		if f.editor.Results() != nil || f.editor.State() != session.StateEmpty {
			t.Error("expected an empty editor")
		}
	})
}

// TestEditorRemoveBackground tests the background removal flow.
func TestEditorRemoveBackground(t *testing.T) {
	t.Parallel()

	t.Run("success shows 100 and replaces the image", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &fakeRemover{out: pngOf(t, 30, 20)})
		f.load(t, 100, 50)
		f.editor.Rotate(90)

		if err := f.editor.RemoveBackground(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		info, _ := f.editor.Info()
		if info.Width != 30 || info.Height != 20 {
			t.Errorf("expected the removed image to be loaded, got %+v", info)
		}
		box, _ := f.editor.CropBox()
		if box != image.Rect(3, 2, 27, 18) {
			t.Errorf("expected a fresh default box, got %v", box)
		}

		f.percents.mu.Lock()
		percents := append([]int(nil), f.percents.percents...)
		hidden := f.percents.hidden
		f.percents.mu.Unlock()
		want := []int{0, 8, 45, 100}
		if len(percents) != len(want) {
			t.Fatalf("expected %v, got %v", want, percents)
		}
		for i := range want {
			if percents[i] != want[i] {
				t.Errorf("update %d: expected %d, got %d", i, want[i], percents[i])
			}
		}
		if hidden != 1 {
			t.Errorf("expected the indicator to be hidden once, got %d", hidden)
		}
		if f.editor.Progress().Running() {
			t.Error("expected no running ramp")
		}
		if n := f.notes.last(); n.Message != notify.MsgBackgroundRemoved {
			t.Errorf("unexpected notification %q", n.Message)
		}
	})

	t.Run("failure hides the indicator without 100", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &fakeRemover{err: errors.New("model crashed")})
		f.load(t, 10, 10)

		err := f.editor.RemoveBackground(context.Background())
		if !errors.Is(err, model.ErrProcessing) {
			t.Fatalf("expected ErrProcessing, got %v", err)
		}
		if f.editor.Progress().Phase() != progress.PhaseIdle || f.editor.Progress().Running() {
			t.Error("expected an idle controller with no ramp")
		}
		f.percents.mu.Lock()
		for _, p := range f.percents.percents {
			if p == 100 {
				t.Error("expected 100 never to be shown")
			}
		}
		f.percents.mu.Unlock()
		if n := f.notes.last(); n.Level != notify.LevelError || n.Message != notify.MsgBackgroundFailed {
			t.Errorf("unexpected notification %+v", n)
		}
		if f.editor.State() != session.StateLoaded {
			t.Error("expected the image to stay loaded")
		}
	})

	t.Run("undecodable output keeps the image", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &fakeRemover{out: []byte("garbage")})
		f.load(t, 10, 10)
		if err := f.editor.RemoveBackground(context.Background()); !errors.Is(err, model.ErrProcessing) {
			t.Fatalf("expected ErrProcessing, got %v", err)
		}
		info, _ := f.editor.Info()
		if info.Width != 10 {
			t.Errorf("expected the original image, got %+v", info)
		}
	})

	t.Run("second call while running is busy", func(t *testing.T) {
		t.Parallel()

		r := &fakeRemover{out: pngOf(t, 5, 5), block: make(chan struct{}), started: make(chan struct{})}
		f := newFixture(t, r)
		f.load(t, 10, 10)

		errc := make(chan error, 1)
		go func() { errc <- f.editor.RemoveBackground(context.Background()) }()
		<-r.started

		if err := f.editor.RemoveBackground(context.Background()); !errors.Is(err, model.ErrBusy) {
			t.Errorf("expected ErrBusy, got %v", err)
		}
		close(r.block)
		if err := <-errc; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("nothing loaded", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, &fakeRemover{})
		if err := f.editor.RemoveBackground(context.Background()); !errors.Is(err, model.ErrNoImage) {
			t.Errorf("expected ErrNoImage, got %v", err)
		}
	})
}

// TestEditorReset tests the reset notification.
func TestEditorReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.load(t, 100, 50)
	if err := f.editor.SetCropBox(image.Rect(0, 0, 10, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.editor.Reset()

	box, _ := f.editor.CropBox()
	if box != image.Rect(10, 5, 90, 45) {
		t.Errorf("expected the default box, got %v", box)
	}
	if n := f.notes.last(); n.Level != notify.LevelInfo || n.Message != notify.MsgTransformReset {
		t.Errorf("unexpected notification %+v", n)
	}
}
