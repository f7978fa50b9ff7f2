package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// TailLines is how many diagnostic lines a result keeps.
const TailLines = 10

// Runner starts external tools and watches their stderr.
type Runner struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{logger: logger}
}

// Run blocks until the process exits. Cancelling ctx kills the process.
func (r *Runner) Run(ctx context.Context, c ports.Command) (types.ProcessResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return types.ProcessResult{ExitCode: -1}, err
	}

	cmd := exec.CommandContext(ctx, c.Exe, c.Args...)
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return types.ProcessResult{ExitCode: -1}, fmt.Errorf("%s: stderr pipe: %w", c.Step, err)
	}

	r.logger.Debug("starting tool", "step", c.Step, "exe", c.Exe, "args", c.Args)
	if err := cmd.Start(); err != nil {
		res := types.ProcessResult{ExitCode: -1, Duration: time.Since(start)}
		return res, &types.ToolError{Kind: types.ErrTranscodeFailure, Step: c.Step, Result: res, Err: err}
	}

	tail := newTail(TailLines)
	sc := bufio.NewScanner(stderr)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		tail.add(line)
		if c.OnProgress != nil && c.Total > 0 {
			if elapsed, ok := ParseTime(line); ok {
				c.OnProgress(Percent(elapsed, c.Total))
			}
		}
	}
	// drain so Wait does not block on a full pipe
	_, _ = io.Copy(io.Discard, stderr)

	waitErr := cmd.Wait()
	res := types.ProcessResult{ExitCode: 0, Tail: tail.lines(), Duration: time.Since(start)}
	if waitErr != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
	}

	if ctx.Err() != nil {
		r.logger.Warn("tool cancelled", "step", c.Step, "duration_ms", res.Duration.Milliseconds())
		return res, ctx.Err()
	}
	if res.ExitCode != 0 {
		r.logger.Warn("tool failed",
			"step", c.Step,
			"exit_code", res.ExitCode,
			"duration_ms", res.Duration.Milliseconds(),
		)
		return res, &types.ToolError{Kind: types.ErrTranscodeFailure, Step: c.Step, Result: res}
	}
	if c.OnProgress != nil {
		c.OnProgress(100)
	}
	r.logger.Debug("tool finished", "step", c.Step, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

var timeToken = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// ParseTime extracts the time=HH:MM:SS.ff token ffmpeg prints in its stats
// line.
func ParseTime(line string) (time.Duration, bool) {
	m := timeToken.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, err1 := strconv.Atoi(m[1])
	mi, err2 := strconv.Atoi(m[2])
	s, err3 := strconv.ParseFloat(m[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	sec := float64(h*3600+mi*60) + s
	return time.Duration(sec * float64(time.Second)), true
}

// Percent returns elapsed as a share of total, clamped to [0,100].
func Percent(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(total) * 100
	return max(0, min(p, 100))
}

// scanLines splits on \n or \r; ffmpeg redraws its stats line with \r.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type tailBuffer struct {
	buf  []string
	next int
	full bool
}

func newTail(n int) *tailBuffer { return &tailBuffer{buf: make([]string, n)} }

func (t *tailBuffer) add(s string) {
	t.buf[t.next] = s
	t.next = (t.next + 1) % len(t.buf)
	if t.next == 0 {
		t.full = true
	}
}

func (t *tailBuffer) lines() []string {
	if !t.full {
		return append([]string(nil), t.buf[:t.next]...)
	}
	out := make([]string, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}
