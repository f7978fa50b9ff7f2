package assembly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// Preparer normalizes a clip to the output frame and fits it to a duration.
type Preparer struct {
	tc     ports.Transcoder
	probe  ports.Prober
	set    Settings
	logger *slog.Logger
}

func NewPreparer(tc ports.Transcoder, probe ports.Prober, set Settings, logger *slog.Logger) *Preparer {
	return &Preparer{tc: tc, probe: probe, set: set, logger: logger}
}

// Normalize scales and cover-crops clip to res, fixes the frame rate and
// strips audio. The result is written to <name>_scaled.mp4.
func (p *Preparer) Normalize(ctx context.Context, name, clip string, res types.Resolution) (string, error) {
	out := p.set.path(name + "_scaled.mp4")
	job := ffcmd.Job{
		Inputs:      []ffcmd.Input{{Path: clip}},
		VideoFilter: ffcmd.ScaleCover(res),
		FrameRate:   p.set.FPS,
		NoAudio:     true,
		Output:      out,
	}
	if err := p.tc.Transcode(ctx, "scale "+name, job, 0, nil); err != nil {
		return "", err
	}
	return out, nil
}

// Prepare normalizes clip and fits it to exactly target.
//
// When the normalized duration cannot be read the error wraps
// types.ErrProbeFailure and the returned segment's Path still names the
// normalized clip, so the caller can apply its own duration policy through
// Fit.
func (p *Preparer) Prepare(ctx context.Context, name, clip string, target time.Duration, res types.Resolution, onProgress func(float64)) (types.PreparedSegment, error) {
	scaled, err := p.Normalize(ctx, name, clip, res)
	if err != nil {
		return types.PreparedSegment{}, err
	}
	d, err := p.probe.ProbeDuration(ctx, scaled)
	if err != nil {
		return types.PreparedSegment{Path: scaled}, fmt.Errorf("prepare %s: %w", name, err)
	}
	return p.Fit(ctx, name, scaled, d, target, onProgress)
}

// Fit trims src to target when it is long enough, otherwise concatenates
// ceil(target/srcDur) copies of it and trims that. Both paths stream-copy.
func (p *Preparer) Fit(ctx context.Context, name, src string, srcDur, target time.Duration, onProgress func(float64)) (types.PreparedSegment, error) {
	if target <= 0 {
		return types.PreparedSegment{}, fmt.Errorf("fit %s: target duration must be > 0", name)
	}
	if srcDur <= 0 {
		return types.PreparedSegment{}, fmt.Errorf("fit %s: %w: zero duration", name, types.ErrProbeFailure)
	}

	out := p.set.path(name + "_fit.mp4")
	job := ffcmd.Job{Copy: true, Duration: target, Output: out}

	if srcDur >= target {
		job.Inputs = []ffcmd.Input{{Path: src}}
		if err := p.tc.Transcode(ctx, "trim "+name, job, target, onProgress); err != nil {
			return types.PreparedSegment{}, err
		}
		return types.PreparedSegment{Path: out, Duration: target}, nil
	}

	loops := LoopCount(srcDur, target)
	list := p.set.path(name + "_loop.txt")
	if err := writePlaylist(list, slices.Repeat([]string{src}, loops)); err != nil {
		return types.PreparedSegment{}, fmt.Errorf("write loop list: %w", err)
	}
	p.logger.Debug("looping clip", "segment", name, "source_sec", srcDur.Seconds(), "target_sec", target.Seconds(), "copies", loops)

	job.Inputs = []ffcmd.Input{{Path: list, Concat: true}}
	if err := p.tc.Transcode(ctx, "loop "+name, job, target, onProgress); err != nil {
		return types.PreparedSegment{}, err
	}
	return types.PreparedSegment{Path: out, Duration: target}, nil
}

// LoopCount is the number of copies of a clip lasting d needed to cover
// target.
func LoopCount(d, target time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(float64(target) / float64(d)))
}

func isProbeFailure(err error) bool {
	return errors.Is(err, types.ErrProbeFailure)
}
