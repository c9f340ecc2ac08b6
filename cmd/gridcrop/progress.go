package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// progressLabel prefixes every progress line.
const progressLabel = "Removing background..."

// progressStep is the percentage between two lines when the output is not
// a terminal.
const progressStep = 25

// terminalProgress is a progress.Sink for the command line. On a terminal
// it redraws one line in place; otherwise it prints a line every
// progressStep percent so logs stay short.
type terminalProgress struct {
	mu      sync.Mutex
	w       io.Writer
	inline  bool
	visible bool
	last    int
}

// newTerminalProgress returns a sink writing to w.
func newTerminalProgress(w io.Writer) *terminalProgress {
	inline := false
	if f, ok := w.(*os.File); ok {
		inline = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &terminalProgress{w: w, inline: inline, last: -1}
}

// Show implements progress.Sink.
func (p *terminalProgress) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
	p.last = -1
}

// SetPercent implements progress.Sink.
func (p *terminalProgress) SetPercent(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible || percent == p.last {
		return
	}
	if p.inline {
		fmt.Fprintf(p.w, "\r%s %3d%%", progressLabel, percent)
		p.last = percent
		return
	}
	if p.last < 0 || percent/progressStep > p.last/progressStep || percent == 100 {
		fmt.Fprintf(p.w, "%s %d%%\n", progressLabel, percent)
		p.last = percent
	}
}

// Hide implements progress.Sink.
func (p *terminalProgress) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible && p.inline && p.last >= 0 {
		fmt.Fprintln(p.w)
	}
	p.visible = false
}
