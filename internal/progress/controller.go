package progress

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Phase boundaries of the indicator.
const (
	// FetchCeiling is the share of the bar given to the download phase.
	FetchCeiling = 40
	// ComputeFloor is the lowest value the ramp starts from.
	ComputeFloor = 45
	// RampCeiling is the highest value the ramp reaches on its own.
	RampCeiling = 99
	// Finished is the value shown by Complete.
	Finished = 100

	// DefaultRampDuration is how long the ramp takes to reach RampCeiling.
	DefaultRampDuration = 9000 * time.Millisecond
	// DefaultTickInterval is the time between ramp steps.
	DefaultTickInterval = 50 * time.Millisecond
)

// Controller tracks one operation at a time. All methods are safe for
// concurrent use; progress callbacks may arrive from any goroutine.
type Controller struct {
	mu sync.Mutex

	sink      Sink
	logger    *slog.Logger
	duration  time.Duration
	interval  time.Duration
	newTicker TickerFunc

	phase     Phase
	displayed int
	visible   bool

	// Ramp state. sim is the unrounded simulated value and increment is
	// added on every tick.
	sim       float64
	increment float64

	ticker Ticker
	stop   chan struct{}
	gen    uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for phase transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRamp overrides the ramp duration and tick interval.
func WithRamp(duration, interval time.Duration) Option {
	return func(c *Controller) {
		if duration > 0 && interval > 0 {
			c.duration = duration
			c.interval = interval
		}
	}
}

// WithTicker replaces the ticker factory.
func WithTicker(fn TickerFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newTicker = fn
		}
	}
}

// NewController creates an idle controller writing to sink.
// A nil sink discards updates.
func NewController(sink Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	c := &Controller{
		sink:      sink,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		duration:  DefaultRampDuration,
		interval:  DefaultTickInterval,
		newTicker: NewTimeTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin resets the indicator to 0%, shows it and enters the fetch phase.
// Any ramp left from a previous operation is stopped.
func (c *Controller) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopRampLocked()
	c.phase = PhaseFetching
	c.displayed = 0
	c.sim = 0
	c.visible = true
	c.sink.Show()
	c.sink.SetPercent(0)
	c.logger.Debug("progress started")
}

// OnFetchProgress reports download progress. The indicator shows
// round(40 * current / total), never less than what is already shown.
// Calls outside the fetch phase and calls with total <= 0 are ignored.
func (c *Controller) OnFetchProgress(current, total int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseFetching || total <= 0 {
		return
	}
	c.stopRampLocked()

	ratio := math.Min(math.Max(float64(current)/float64(total), 0), 1)
	p := int(math.Round(FetchCeiling * ratio))
	c.setLocked(p)
}

// OnComputeStarted enters the simulated phase. The ramp starts at
// max(45, shown) and climbs to 99 over the ramp duration. The start value is
// shown immediately. A second call while simulating is ignored.
func (c *Controller) OnComputeStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseFetching {
		return
	}

	start := max(ComputeFloor, c.displayed)
	steps := float64(c.duration) / float64(c.interval)
	c.sim = float64(start)
	c.increment = float64(RampCeiling-start) / steps
	c.phase = PhaseSimulating
	c.setLocked(start)
	c.logger.Debug("progress simulating", slog.Int("from", start))

	c.startRampLocked()
}

// Complete stops the ramp and shows 100%.
// It has no effect unless an operation is being tracked.
func (c *Controller) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseFetching && c.phase != PhaseSimulating {
		return
	}
	c.stopRampLocked()
	c.phase = PhaseDone
	c.setLocked(Finished)
	c.logger.Debug("progress complete")
}

// CancelAll stops the ramp and hides the indicator. It is safe to call from
// any phase, any number of times. An unfinished operation returns to idle
// without showing 100%.
func (c *Controller) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopRampLocked()
	if c.phase != PhaseDone {
		c.phase = PhaseIdle
	}
	if c.visible {
		c.visible = false
		c.sink.Hide()
	}
}

// Percent returns the displayed percentage.
func (c *Controller) Percent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayed
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Running reports whether a ramp timer is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}

// setLocked shows p unless that would move the indicator backwards.
func (c *Controller) setLocked(p int) {
	p = min(max(p, 0), Finished)
	if p <= c.displayed {
		return
	}
	c.displayed = p
	c.sink.SetPercent(p)
}

func (c *Controller) startRampLocked() {
	c.stopRampLocked()

	c.gen++
	gen := c.gen
	ticker := c.newTicker(c.interval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.stop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				c.tick(gen)
			}
		}
	}()
}

func (c *Controller) stopRampLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stop)
	c.ticker = nil
	c.stop = nil
}

// tick advances the ramp by one step. Ticks from a stopped ramp and ticks
// after the ceiling is reached do nothing.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.phase != PhaseSimulating || c.displayed >= RampCeiling {
		return
	}
	c.sim += c.increment
	c.setLocked(min(RampCeiling, int(math.Round(c.sim))))
}
