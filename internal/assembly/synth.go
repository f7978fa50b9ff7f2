package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// StageOutput is one synthesized stage.
type StageOutput struct {
	Index    int
	Clip     string
	Segment  types.PreparedSegment
	Audio    string
	Duration time.Duration
}

// Synthesizer pairs narration with footage, per stage or for the whole
// project at once.
type Synthesizer struct {
	narrator ports.Narrator
	probe    ports.Prober
	prep     *Preparer
	set      Settings
	logger   *slog.Logger
}

func NewSynthesizer(narrator ports.Narrator, probe ports.Prober, prep *Preparer, set Settings, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{narrator: narrator, probe: probe, prep: prep, set: set, logger: logger}
}

// StageName qualifies artifact names for stage i.
func StageName(i int) string { return fmt.Sprintf("stage_%02d", i) }

// Synthesize narrates text (when non-empty), measures it and fits clip to
// that length. Silent stages and unreadable narration durations use
// Settings.StageDefault.
func (s *Synthesizer) Synthesize(ctx context.Context, index int, clip, text string, onProgress func(float64)) (StageOutput, error) {
	name := StageName(index)
	out := StageOutput{Index: index, Clip: clip, Duration: s.set.StageDefault}

	if strings.TrimSpace(text) != "" {
		audio := s.set.path(name + "_audio.mp3")
		if err := s.narrator.Narrate(ctx, text, audio); err != nil {
			return StageOutput{}, fmt.Errorf("stage %d narration: %w", index+1, err)
		}
		out.Audio = audio

		d, err := s.probe.ProbeDuration(ctx, audio)
		switch {
		case err == nil:
			out.Duration = d
		case isProbeFailure(err):
			s.logger.Warn("narration duration unreadable, using default",
				"stage", index+1, "default_sec", s.set.StageDefault.Seconds(), "error", err)
		default:
			return StageOutput{}, err
		}
	}

	seg, err := s.prep.Prepare(ctx, name, clip, out.Duration, s.set.Resolution, onProgress)
	if err != nil && isProbeFailure(err) && seg.Path != "" {
		// Treat the normalized clip as long enough and let the trim decide.
		s.logger.Warn("clip duration unreadable, trimming blind", "stage", index+1, "error", err)
		seg, err = s.prep.Fit(ctx, name, seg.Path, out.Duration, out.Duration, onProgress)
	}
	if err != nil {
		return StageOutput{}, fmt.Errorf("stage %d clip: %w", index+1, err)
	}
	out.Segment = seg
	return out, nil
}

// LegacyOutput is the single oversized segment built in legacy mode. Target
// is the duration the final encode must be cut to.
type LegacyOutput struct {
	Segment types.PreparedSegment
	Target  time.Duration
	Picks   int
}

// LegacyTarget is narration, or Settings.LegacyDefault when there is none.
func (s *Synthesizer) LegacyTarget(narration time.Duration) time.Duration {
	if narration > 0 {
		return narration
	}
	return s.set.LegacyDefault
}

// Legacy normalizes every clip and concatenates them round-robin until the
// sequence outlasts target by Settings.LoopBuffer. The result is not trimmed;
// the final encode cuts it to Target.
func (s *Synthesizer) Legacy(ctx context.Context, clips []string, narration time.Duration) (LegacyOutput, error) {
	if len(clips) == 0 {
		return LegacyOutput{}, fmt.Errorf("legacy assembly: %w", types.ErrNoInputMedia)
	}
	target := s.LegacyTarget(narration)

	scaled := make([]string, len(clips))
	durs := make([]time.Duration, len(clips))
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			return LegacyOutput{}, err
		}
		p, err := s.prep.Normalize(ctx, fmt.Sprintf("clip_%02d", i), clip, s.set.Resolution)
		if err != nil {
			return LegacyOutput{}, err
		}
		scaled[i] = p
		d, err := s.probe.ProbeDuration(ctx, p)
		if err != nil {
			if !isProbeFailure(err) {
				return LegacyOutput{}, err
			}
			s.logger.Warn("clip duration unreadable, skipping", "clip", clip, "error", err)
			d = 0
		}
		durs[i] = d
	}

	order, acc := RoundRobin(durs, target+s.set.LoopBuffer, s.set.MaxLoopPicks)
	if len(order) == 0 {
		return LegacyOutput{}, fmt.Errorf("legacy assembly: %w", types.ErrZeroDurationClips)
	}

	paths := make([]string, len(order))
	for i, idx := range order {
		paths[i] = scaled[idx]
	}
	s.logger.Info("legacy sequence built",
		"picks", len(order), "sequence_sec", acc.Seconds(), "target_sec", target.Seconds())

	list := s.set.path("legacy_list.txt")
	if err := writePlaylist(list, paths); err != nil {
		return LegacyOutput{}, fmt.Errorf("write legacy list: %w", err)
	}
	out := s.set.path("legacy_concat.mp4")
	if err := concatCopy(ctx, s.prep.tc, "concat legacy clips", list, out, 0); err != nil {
		return LegacyOutput{}, err
	}
	return LegacyOutput{
		Segment: types.PreparedSegment{Path: out, Duration: acc},
		Target:  target,
		Picks:   len(order),
	}, nil
}

// RoundRobin picks clip indices in rotation, skipping non-positive
// durations, until the picked total reaches goal or maxIter rotations have
// been tried. It returns the picked indices and their total duration.
func RoundRobin(durs []time.Duration, goal time.Duration, maxIter int) ([]int, time.Duration) {
	var order []int
	var acc time.Duration
	if len(durs) == 0 {
		return nil, 0
	}
	for i := 0; acc < goal && i < maxIter; i++ {
		idx := i % len(durs)
		if durs[idx] > 0 {
			order = append(order, idx)
			acc += durs[idx]
		}
	}
	return order, acc
}
