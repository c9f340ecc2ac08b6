package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// TerminalSink prints notifications as coloured lines. A terminal line cannot
// be taken back, so Dismiss does nothing.
type TerminalSink struct {
	mu      sync.Mutex
	w       io.Writer
	info    *color.Color
	success *color.Color
	failure *color.Color
}

// NewTerminalSink returns a sink writing to w. Colour is disabled when
// useColor is false or when fatih/color detects a non-terminal.
func NewTerminalSink(w io.Writer, useColor bool) *TerminalSink {
	s := &TerminalSink{
		w:       w,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if !useColor {
		s.info.DisableColor()
		s.success.DisableColor()
		s.failure.DisableColor()
	}
	return s
}

// Display implements Sink.
func (s *TerminalSink) Display(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, icon := s.info, "i"
	switch n.Level {
	case LevelSuccess:
		c, icon = s.success, "✓"
	case LevelError:
		c, icon = s.failure, "✗"
	}
	_, _ = c.Fprintf(s.w, "%s ", icon)
	_, _ = fmt.Fprintln(s.w, n.Message)
}

// Dismiss implements Sink.
func (s *TerminalSink) Dismiss(Notification) {}
