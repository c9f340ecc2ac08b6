package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nao1215/gridcrop/internal/progress"
)

var _ progress.Sink = (*terminalProgress)(nil)

func TestTerminalProgress(t *testing.T) {
	t.Parallel()

	t.Run("prints coarse lines when not a terminal", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		p := newTerminalProgress(&buf)

		p.Show()
		for _, pct := range []int{0, 5, 10, 26, 30, 51, 99, 100} {
			p.SetPercent(pct)
		}
		p.Hide()

		got := strings.Split(strings.TrimSpace(buf.String()), "\n")
		want := []string{
			"Removing background... 0%",
			"Removing background... 26%",
			"Removing background... 51%",
			"Removing background... 100%",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d lines, got %q", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("ignores updates while hidden", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		p := newTerminalProgress(&buf)

		p.SetPercent(50)
		p.Show()
		p.Hide()
		p.SetPercent(75)

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("redraws in place when inline", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		p := &terminalProgress{w: &buf, inline: true, last: -1}

		p.Show()
		p.SetPercent(10)
		p.SetPercent(20)
		p.Hide()

		want := "\rRemoving background...  10%\rRemoving background...  20%\n"
		if buf.String() != want {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})
}
