package assembly

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

func TestSynthesize_NarratedStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{
		"stage_00_audio.mp3":  7500 * time.Millisecond,
		"stage_00_scaled.mp4": 20 * time.Second,
	})
	out, err := f.synth.Synthesize(context.Background(), 0, "clip.mp4", "Hello world.", nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Duration != 7500*time.Millisecond || out.Segment.Duration != 7500*time.Millisecond {
		t.Fatalf("unexpected durations: %+v", out)
	}
	if out.Audio != f.set.path("stage_00_audio.mp3") {
		t.Fatalf("audio = %q", out.Audio)
	}
	if len(f.narr.texts) != 1 || f.narr.texts[0] != "Hello world." {
		t.Fatalf("narrator calls: %v", f.narr.texts)
	}
}

func TestSynthesize_SilentStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{"stage_01_scaled.mp4": 3 * time.Second})
	out, err := f.synth.Synthesize(context.Background(), 1, "clip.mp4", "   ", nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Audio != "" || len(f.narr.texts) != 0 {
		t.Fatalf("silent stage should not narrate: %+v", out)
	}
	if out.Duration != 10*time.Second || out.Segment.Duration != 10*time.Second {
		t.Fatalf("expected 10s default, got %v", out.Duration)
	}
	lines := readLines(t, f.set.path("stage_01_loop.txt"))
	if len(lines) != 4 {
		t.Fatalf("expected 4 copies of a 3s clip, got %d", len(lines))
	}
}

func TestSynthesize_AudioProbeFailureUsesDefault(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{"stage_02_scaled.mp4": 30 * time.Second})
	out, err := f.synth.Synthesize(context.Background(), 2, "clip.mp4", "Something to say.", nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Duration != 10*time.Second {
		t.Fatalf("expected 10s fallback, got %v", out.Duration)
	}
	if out.Audio == "" {
		t.Fatalf("narration should still be used")
	}
}

func TestSynthesize_ClipProbeFailureTrims(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{"stage_03_audio.mp3": 6 * time.Second})
	out, err := f.synth.Synthesize(context.Background(), 3, "clip.mp4", "Text.", nil)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if out.Segment.Duration != 6*time.Second {
		t.Fatalf("segment duration = %v", out.Segment.Duration)
	}
	if _, ok := f.tc.call("trim stage_03"); !ok {
		t.Fatalf("expected blind trim, got %v", f.tc.steps())
	}
}

func TestSynthesize_TTSFailureIsFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.narr.err = &types.ToolError{Kind: types.ErrTTSFailure, Step: "narrate"}
	_, err := f.synth.Synthesize(context.Background(), 0, "clip.mp4", "Text.", nil)
	if !errors.Is(err, types.ErrTTSFailure) {
		t.Fatalf("expected tts failure, got %v", err)
	}
	if len(f.tc.steps()) != 0 {
		t.Fatalf("no transcode should run after tts failure: %v", f.tc.steps())
	}
}

func TestLegacy_SilentDefaultsTo15s(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{
		"clip_00_scaled.mp4": 4 * time.Second,
		"clip_01_scaled.mp4": 6 * time.Second,
	})
	out, err := f.synth.Legacy(context.Background(), []string{"a.mp4", "b.mp4"}, 0)
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if out.Target != 15*time.Second {
		t.Fatalf("target = %v, want 15s", out.Target)
	}
	// 4+6+4+6 = 20s reaches 15s plus the 5s buffer.
	if out.Picks != 4 || out.Segment.Duration != 20*time.Second {
		t.Fatalf("unexpected sequence: %+v", out)
	}
	lines := readLines(t, f.set.path("legacy_list.txt"))
	if len(lines) != 4 {
		t.Fatalf("playlist has %d entries", len(lines))
	}
	c, ok := f.tc.call("concat legacy clips")
	if !ok || c.job.Duration != 0 {
		t.Fatalf("legacy concat must not trim: %+v", c.job)
	}
}

func TestLegacy_UsesNarrationDuration(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{"clip_00_scaled.mp4": 10 * time.Second})
	out, err := f.synth.Legacy(context.Background(), []string{"a.mp4"}, 42*time.Second)
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if out.Target != 42*time.Second || out.Picks != 5 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestLegacy_SkipsUnreadableClips(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]time.Duration{"clip_01_scaled.mp4": 10 * time.Second})
	out, err := f.synth.Legacy(context.Background(), []string{"broken.mp4", "ok.mp4"}, 0)
	if err != nil {
		t.Fatalf("legacy: %v", err)
	}
	if out.Picks != 2 {
		t.Fatalf("picks = %d", out.Picks)
	}
	for _, ln := range readLines(t, f.set.path("legacy_list.txt")) {
		if ln != "file '"+f.set.path("clip_01_scaled.mp4")+"'" {
			t.Fatalf("unexpected entry %q", ln)
		}
	}
}

func TestLegacy_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.synth.Legacy(context.Background(), nil, 0)
	if !errors.Is(err, types.ErrNoInputMedia) {
		t.Fatalf("expected no input media, got %v", err)
	}
	if len(f.tc.steps()) != 0 {
		t.Fatalf("no transcode expected without clips")
	}

	_, err = f.synth.Legacy(context.Background(), []string{"a.mp4", "b.mp4"}, 0)
	if !errors.Is(err, types.ErrZeroDurationClips) || !errors.Is(err, types.ErrNoInputMedia) {
		t.Fatalf("expected zero duration clips, got %v", err)
	}
}

func TestLegacy_Cancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.synth.Legacy(ctx, []string{"a.mp4"}, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRoundRobin(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		durs      []time.Duration
		goal      time.Duration
		max       int
		wantOrder []int
	}{
		{name: "alternates", durs: []time.Duration{3 * time.Second, 2 * time.Second}, goal: 9 * time.Second, max: 100, wantOrder: []int{0, 1, 0, 1}},
		{name: "stops at exact goal", durs: []time.Duration{5 * time.Second}, goal: 10 * time.Second, max: 100, wantOrder: []int{0, 0}},
		{name: "skips zero", durs: []time.Duration{0, 5 * time.Second}, goal: 9 * time.Second, max: 100, wantOrder: []int{1, 1}},
		{name: "all zero", durs: []time.Duration{0, 0}, goal: time.Second, max: 100, wantOrder: nil},
		{name: "safety cap", durs: []time.Duration{time.Millisecond}, goal: time.Hour, max: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, _ := RoundRobin(tc.durs, tc.goal, tc.max)
			if tc.name == "safety cap" {
				if len(got) != 100 {
					t.Fatalf("expected 100 picks, got %d", len(got))
				}
				return
			}
			if len(got) != len(tc.wantOrder) {
				t.Fatalf("order = %v, want %v", got, tc.wantOrder)
			}
			for i := range got {
				if got[i] != tc.wantOrder[i] {
					t.Fatalf("order = %v, want %v", got, tc.wantOrder)
				}
			}
		})
	}
}
