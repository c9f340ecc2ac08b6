package removal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/raster"
)

const (
	// DefaultTolerance is the CIE-Lab distance below which a pixel matches
	// the border colour.
	DefaultTolerance = 0.12
	// DefaultFeather is the blur sigma applied to the mask edge.
	DefaultFeather = 1.0

	// ctxCheckEvery is how many pixels the fill visits between ctx checks.
	ctxCheckEvery = 1 << 14
)

// LocalOptions configures a Local service.
type LocalOptions struct {
	// Tolerance is the Lab distance threshold. Zero selects
	// DefaultTolerance.
	Tolerance float64
	// Feather is the mask blur sigma. Zero disables feathering.
	Feather float64
	// MaxPixels limits the decoded input size. Zero selects
	// raster.DefaultMaxPixels.
	MaxPixels int
}

// DefaultLocalOptions returns the tolerance and feather used by the CLI.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{Tolerance: DefaultTolerance, Feather: DefaultFeather}
}

// Local removes backgrounds without a network. It samples the mean colour
// of the image border and flood-fills inwards from the border over every
// pixel within Tolerance of that colour, making them transparent.
type Local struct {
	opts   LocalOptions
	logger *slog.Logger
}

// NewLocal returns a Local service.
func NewLocal(opts LocalOptions, logger *slog.Logger) *Local {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Local{opts: opts, logger: logger}
}

// Name implements Service.
func (l *Local) Name() string {
	return KindLocal
}

// RemoveBackground implements Service. Decoding is reported as
// StageFetchDecode and the mask computation as StageComputeMask.
func (l *Local) RemoveBackground(ctx context.Context, input []byte, progress ProgressFunc) ([]byte, error) {
	report(progress, StageFetchDecode, 0, 1)
	src, _, err := raster.Decode(input, l.opts.MaxPixels)
	if err != nil {
		return nil, err
	}
	report(progress, StageFetchDecode, 1, 1)
	report(progress, StageComputeMask, 0, 0)

	img := imaging.Clone(src)
	mask, err := backgroundMask(ctx, img, l.opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrProcessing, err)
	}
	if l.opts.Feather > 0 {
		mask = imaging.Blur(mask, l.opts.Feather)
	}
	applyMask(img, mask)

	l.logger.Debug("background removed locally",
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()))

	return raster.EncodePNG(img, png.DefaultCompression)
}

// backgroundMask returns an opaque-white-on-black mask where black marks
// pixels connected to the border whose colour is close to the mean border
// colour.
func backgroundMask(ctx context.Context, img *image.NRGBA, tolerance float64) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ref := borderColor(img)

	background := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	matches := func(x, y int) bool {
		c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		if c.A == 0 {
			return true
		}
		return toColorful(c).DistanceLab(ref) <= tolerance
	}
	push := func(x, y int) {
		i := y*w + x
		if background[i] || !matches(x, y) {
			return
		}
		background[i] = true
		queue = append(queue, i)
	}

	for x := range w {
		push(x, 0)
		push(x, h-1)
	}
	for y := range h {
		push(0, y)
		push(w-1, y)
	}

	for visited := 0; len(queue) > 0; visited++ {
		if visited%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	mask := imaging.New(w, h, color.White)
	for i, bg := range background {
		if bg {
			mask.SetNRGBA(i%w, i/w, color.NRGBA{A: 255})
		}
	}
	return mask, nil
}

// borderColor averages the opaque border pixels in Lab space.
func borderColor(img *image.NRGBA) colorful.Color {
	b := img.Bounds()
	var l, a, bb float64
	n := 0
	add := func(x, y int) {
		c := img.NRGBAAt(x, y)
		if c.A == 0 {
			return
		}
		cl, ca, cb := toColorful(c).Lab()
		l, a, bb = l+cl, a+ca, bb+cb
		n++
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		add(x, b.Max.Y-1)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		add(b.Min.X, y)
		add(b.Max.X-1, y)
	}
	if n == 0 {
		return colorful.Color{}
	}
	return colorful.Lab(l/float64(n), a/float64(n), bb/float64(n)).Clamped()
}

// applyMask scales each pixel's alpha by the mask's red channel.
func applyMask(img, mask *image.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			m := mask.NRGBAAt(x, y).R
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			c.A = uint8(uint16(c.A) * uint16(m) / 255)
			img.SetNRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
	}
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
