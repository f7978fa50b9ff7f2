package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/reelforge/internal/assembly"
	"github.com/forPelevin/reelforge/internal/domain/subtitles"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/progress"
	"github.com/forPelevin/reelforge/internal/types"
)

type Deps struct {
	Transcoder ports.Transcoder
	Prober     ports.Prober
	Narrator   ports.Narrator
	Logger     *slog.Logger
}

type Usecase struct {
	d      Deps
	set    assembly.Settings
	prep   *assembly.Preparer
	synth  *assembly.Synthesizer
	concat *assembly.Concatenator
	mux    *assembly.Muxer
}

func New(d Deps, set assembly.Settings) Usecase {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	prep := assembly.NewPreparer(d.Transcoder, d.Prober, set, logging.WithComponent(d.Logger, "prepare"))
	return Usecase{
		d:      d,
		set:    set,
		prep:   prep,
		synth:  assembly.NewSynthesizer(d.Narrator, d.Prober, prep, set, logging.WithComponent(d.Logger, "synth")),
		concat: assembly.NewConcatenator(d.Transcoder, set, logging.WithComponent(d.Logger, "concat")),
		mux:    assembly.NewMuxer(d.Transcoder, set, logging.WithComponent(d.Logger, "mux")),
	}
}

type Input struct {
	Project types.Project
	// Output is where the final video is written.
	Output string
	// Captions enables caption generation when the project has no caption
	// file of its own.
	Captions bool
	// Parallel bounds concurrent stage synthesis; values below 1 mean 1.
	Parallel int
	Progress *progress.Reporter
}

type Result struct {
	Output   string
	Captions string
	Total    time.Duration
	Mode     string
	Segments []types.ManifestEntry
}

const (
	ModeStaged = "staged"
	ModeLegacy = "legacy"
)

// assembled is what either mode hands to captioning and the final encode.
type assembled struct {
	video    string
	audio    string
	total    time.Duration
	script   string
	segments []types.ManifestEntry
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if in.Output == "" {
		return Result{}, fmt.Errorf("output path is empty")
	}

	var (
		a    assembled
		err  error
		mode = ModeLegacy
	)
	if in.Project.Staged() {
		mode = ModeStaged
		a, err = u.runStaged(ctx, in)
	} else {
		a, err = u.runLegacy(ctx, in)
	}
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	captions := in.Project.CaptionPath
	if captions == "" && in.Captions && strings.TrimSpace(a.script) != "" {
		captions, err = u.writeCaptions(ctx, in, a)
		if err != nil {
			return Result{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	update := in.Progress.Step(ctx, "final render")
	out, err := u.mux.Mux(ctx, assembly.MuxInput{
		Video:      a.video,
		Audio:      a.audio,
		Captions:   captions,
		Total:      a.total,
		Output:     in.Output,
		OnProgress: update,
	})
	if err != nil {
		return Result{}, err
	}
	in.Progress.Done(ctx, "final render")
	u.d.Logger.Info("render complete", "output", out, "mode", mode, "total_sec", a.total.Seconds())

	return Result{
		Output:   out,
		Captions: captions,
		Total:    a.total,
		Mode:     mode,
		Segments: a.segments,
	}, nil
}

// stagePlan is a stage with its resolved clip.
type stagePlan struct {
	index int
	clip  string
	text  string
}

// resolveStages picks the clip for each stage: its own clip, the project
// clip at the same position, then the first project clip. Stages with no
// clip at all are skipped.
func resolveStages(p types.Project) []stagePlan {
	var plans []stagePlan
	for i, st := range p.Stages {
		clip := st.ClipPath
		if clip == "" && i < len(p.Clips) {
			clip = p.Clips[i]
		}
		if clip == "" && len(p.Clips) > 0 {
			clip = p.Clips[0]
		}
		if clip == "" {
			continue
		}
		plans = append(plans, stagePlan{index: i, clip: clip, text: p.StageText(i)})
	}
	return plans
}

func (u Usecase) runStaged(ctx context.Context, in Input) (assembled, error) {
	plans := resolveStages(in.Project)
	if len(plans) == 0 {
		return assembled{}, fmt.Errorf("staged assembly: %w", types.ErrNoInputMedia)
	}
	for _, st := range skippedStages(in.Project, plans) {
		u.d.Logger.Warn("stage has no clip, skipping", "stage", st+1)
	}

	outs := make([]assembly.StageOutput, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, in.Parallel))
	for i, plan := range plans {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			step := fmt.Sprintf("stage %d/%d", plan.index+1, len(in.Project.Stages))
			update := in.Progress.Step(gctx, step)
			out, err := u.synth.Synthesize(gctx, plan.index, plan.clip, plan.text, update)
			if err != nil {
				return err
			}
			in.Progress.Done(gctx, step)
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return assembled{}, err
	}
	if err := ctx.Err(); err != nil {
		return assembled{}, err
	}

	var (
		a      assembled
		segs   = make([]types.PreparedSegment, 0, len(outs))
		audios []string
		texts  []string
	)
	for i, out := range outs {
		segs = append(segs, out.Segment)
		if out.Audio != "" {
			audios = append(audios, out.Audio)
		}
		if t := strings.TrimSpace(plans[i].text); t != "" {
			texts = append(texts, terminate(t))
		}
		a.total += out.Duration
		a.segments = append(a.segments, types.ManifestEntry{
			Stage:       out.Index + 1,
			Clip:        out.Clip,
			Video:       out.Segment.Path,
			Audio:       out.Audio,
			DurationSec: out.Duration.Seconds(),
		})
	}
	for _, st := range skippedStages(in.Project, plans) {
		a.segments = append(a.segments, types.ManifestEntry{Stage: st + 1, Skipped: true})
	}
	a.script = strings.Join(texts, " ")

	update := in.Progress.Step(ctx, "concat")
	video, err := u.concat.Videos(ctx, "final_no_audio", segs)
	if err != nil {
		return assembled{}, err
	}
	update(50)
	if err := ctx.Err(); err != nil {
		return assembled{}, err
	}
	audio, err := u.concat.Audios(ctx, "final_audio", audios)
	if err != nil {
		return assembled{}, err
	}
	in.Progress.Done(ctx, "concat")

	a.video = video
	a.audio = audio
	return a, nil
}

func skippedStages(p types.Project, plans []stagePlan) []int {
	used := make(map[int]bool, len(plans))
	for _, pl := range plans {
		used[pl.index] = true
	}
	var out []int
	for i := range p.Stages {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}

// terminate makes sure text ends a sentence so joined stage scripts split
// into captions at stage boundaries.
func terminate(text string) string {
	r, _ := utf8.DecodeLastRuneInString(text)
	switch r {
	case '.', '!', '?':
		return text
	}
	return text + "."
}

func (u Usecase) runLegacy(ctx context.Context, in Input) (assembled, error) {
	p := in.Project
	if len(p.Clips) == 0 {
		return assembled{}, fmt.Errorf("legacy assembly: %w", types.ErrNoInputMedia)
	}

	audio := p.AudioPath
	if audio == "" && strings.TrimSpace(p.Script) != "" {
		audio = filepath.Join(u.set.Dir, "narration.mp3")
		in.Progress.Step(ctx, "narration")
		if err := u.d.Narrator.Narrate(ctx, p.Script, audio); err != nil {
			return assembled{}, fmt.Errorf("narration: %w", err)
		}
		in.Progress.Done(ctx, "narration")
	}

	narration := time.Duration(p.NarrationSeconds * float64(time.Second))
	if narration <= 0 && audio != "" {
		d, err := u.d.Prober.ProbeDuration(ctx, audio)
		switch {
		case err == nil:
			narration = d
		case ctx.Err() != nil:
			return assembled{}, ctx.Err()
		default:
			u.d.Logger.Warn("narration duration unreadable, using default", "audio", audio, "error", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return assembled{}, err
	}

	in.Progress.Step(ctx, "prepare clips")
	out, err := u.synth.Legacy(ctx, p.Clips, narration)
	if err != nil {
		return assembled{}, err
	}
	in.Progress.Done(ctx, "prepare clips")

	return assembled{
		video:  out.Segment.Path,
		audio:  audio,
		total:  out.Target,
		script: p.Script,
		segments: []types.ManifestEntry{{
			Clip:        strings.Join(p.Clips, ","),
			Video:       out.Segment.Path,
			Audio:       audio,
			DurationSec: out.Target.Seconds(),
		}},
	}, nil
}

func (u Usecase) writeCaptions(ctx context.Context, in Input, a assembled) (string, error) {
	path := filepath.Join(u.set.Dir, "subtitles.srt")
	in.Progress.Step(ctx, "captions")
	n, err := subtitles.WriteSRTFile(path, a.script, a.total)
	if err != nil {
		return "", err
	}
	in.Progress.Done(ctx, "captions")
	if n == 0 {
		u.d.Logger.Warn("no sentences found for captions")
		return "", nil
	}
	u.d.Logger.Info("captions written", "entries", n, "path", path)
	return path, nil
}
