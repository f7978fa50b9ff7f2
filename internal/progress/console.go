package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Console renders events for a human. On a terminal it redraws a single
// status line; otherwise it prints a line whenever a step starts, crosses a
// 25% bucket or finishes.
type Console struct {
	w       io.Writer
	tty     bool
	sampler *sampler
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, tty: IsTerminal(w), sampler: newSampler(25)}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Consume renders events until ch is closed.
func (c *Console) Consume(ch <-chan Event) {
	for ev := range ch {
		c.Render(ev)
	}
}

func (c *Console) Render(ev Event) {
	if ev.Final {
		if c.tty {
			fmt.Fprint(c.w, "\r\033[K")
		}
		if ev.Err != "" {
			fmt.Fprintf(c.w, "failed: %s\n", firstLine(ev.Err))
		}
		return
	}
	if c.tty {
		fmt.Fprintf(c.w, "\r\033[K%-28s %s %5.1f%%", truncate(ev.Step, 28), bar(ev.Percent, 24), ev.Percent)
		if ev.Done {
			fmt.Fprint(c.w, "\n")
		}
		return
	}
	if c.sampler.shouldEmit(ev.Step, ev.Percent) {
		fmt.Fprintf(c.w, "%s %3.0f%%\n", ev.Step, ev.Percent)
	}
}

func bar(p float64, width int) string {
	filled := int(p / 100 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// sampler suppresses repeated progress lines until the step changes or the
// percentage crosses a bucket boundary.
type sampler struct {
	bucketSize float64
	lastStep   string
	lastBucket int
}

func newSampler(bucketSize float64) *sampler {
	return &sampler{bucketSize: bucketSize, lastBucket: -1}
}

func (s *sampler) shouldEmit(step string, percent float64) bool {
	emit := false
	if step != s.lastStep {
		s.lastStep = step
		s.lastBucket = -1
		emit = true
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}
