package notify

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultVisibleFor is how long a notification stays on screen.
	DefaultVisibleFor = 3 * time.Second
	// DefaultFadeOut is the delay between dismissal and removal.
	DefaultFadeOut = 400 * time.Millisecond
)

// Notification is one message handed to a Sink.
type Notification struct {
	ID        uint64
	Message   string
	Level     Level
	CreatedAt time.Time
	// Dismissed is set once the notification has been dismissed and is
	// fading out.
	Dismissed bool
}

// Sink presents notifications. Calls are made while the notifier holds its
// lock, so implementations must not call back into the Notifier.
type Sink interface {
	// Display shows a new notification.
	Display(n Notification)
	// Dismiss starts hiding a notification shown earlier.
	Dismiss(n Notification)
}

// Timer is the part of *time.Timer the notifier uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It has the signature of time.AfterFunc
// without the concrete return type.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	n     Notification
	timer Timer
}

// Notifier tracks active notifications. It is safe for concurrent use.
type Notifier struct {
	mu sync.Mutex

	sink       Sink
	logger     *slog.Logger
	visibleFor time.Duration
	fadeOut    time.Duration
	afterFunc  AfterFunc
	now        func() time.Time

	nextID uint64
	active map[uint64]*entry
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger. Every notification is also logged, errors at
// Warn level and the rest at Debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithDurations overrides the visible and fade-out times.
func WithDurations(visibleFor, fadeOut time.Duration) Option {
	return func(n *Notifier) {
		if visibleFor > 0 {
			n.visibleFor = visibleFor
		}
		if fadeOut >= 0 {
			n.fadeOut = fadeOut
		}
	}
}

// WithAfterFunc replaces the timer scheduler.
func WithAfterFunc(fn AfterFunc) Option {
	return func(n *Notifier) {
		if fn != nil {
			n.afterFunc = fn
		}
	}
}

// New creates a Notifier writing to sink. A nil sink only logs.
func New(sink Sink, opts ...Option) *Notifier {
	n := &Notifier{
		sink:       sink,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		visibleFor: DefaultVisibleFor,
		fadeOut:    DefaultFadeOut,
		afterFunc:  realAfterFunc,
		now:        time.Now,
		active:     make(map[uint64]*entry),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show displays message with the given level and schedules its dismissal.
// After Close the message is only logged.
func (n *Notifier) Show(message string, level Level) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	note := Notification{
		ID:        n.nextID,
		Message:   message,
		Level:     level,
		CreatedAt: n.now(),
	}
	n.log(note)

	if n.closed {
		return note
	}

	e := &entry{n: note}
	n.active[note.ID] = e
	if n.sink != nil {
		n.sink.Display(note)
	}
	id := note.ID
	e.timer = n.afterFunc(n.visibleFor, func() { n.dismiss(id) })
	return note
}

// Info shows an informational message.
func (n *Notifier) Info(message string) Notification {
	return n.Show(message, LevelInfo)
}

// Success shows a success message.
func (n *Notifier) Success(message string) Notification {
	return n.Show(message, LevelSuccess)
}

// Error shows an error message.
func (n *Notifier) Error(message string) Notification {
	return n.Show(message, LevelError)
}

// Active returns notifications that have not been removed yet, oldest first.
// Dismissed notifications stay listed until their fade-out ends.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, 0, len(n.active))
	for _, e := range n.active {
		out = append(out, e.n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every pending timer and drops active notifications without
// dismissing them. Later calls to Show only log.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, e := range n.active {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(n.active, id)
	}
	n.closed = true
}

func (n *Notifier) dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	e, ok := n.active[id]
	if !ok || e.n.Dismissed {
		return
	}
	e.n.Dismissed = true
	if n.sink != nil {
		n.sink.Dismiss(e.n)
	}
	e.timer = n.afterFunc(n.fadeOut, func() { n.remove(id) })
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.active, id)
}

func (n *Notifier) log(note Notification) {
	attrs := []any{slog.String("level", note.Level.String()), slog.Uint64("id", note.ID)}
	if note.Level == LevelError {
		n.logger.Warn(note.Message, attrs...)
		return
	}
	n.logger.Debug(note.Message, attrs...)
}
