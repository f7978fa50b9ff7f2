package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	runner  ports.ProcessRunner
}

func New(ffmpegPath, ffprobePath string, runner ports.ProcessRunner) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, runner: runner}
}

// Transcode runs job through the process runner. onProgress may be nil.
func (a *Adapter) Transcode(ctx context.Context, step string, job ffcmd.Job, total time.Duration, onProgress func(float64)) error {
	_, err := a.runner.Run(ctx, ports.Command{
		Step:       step,
		Exe:        a.ffmpeg,
		Args:       job.Args(),
		Total:      total,
		OnProgress: onProgress,
	})
	return err
}

// ProbeDuration reads the container duration. Any failure, including a zero
// or unparsable duration, wraps types.ErrProbeFailure.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	b, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ffprobe %s: %w: %w\n%s", path, types.ErrProbeFailure, err, stderr.String())
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, types.ErrProbeFailure)
	}
	if sec <= 0 {
		return 0, fmt.Errorf("duration %q: %w", s, types.ErrProbeFailure)
	}
	return time.Duration(sec * float64(time.Second)), nil
}
