package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/forPelevin/reelforge/internal/assembly"
	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/deps"
	"github.com/forPelevin/reelforge/internal/history"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/ports/adapters/edgetts"
	"github.com/forPelevin/reelforge/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/reelforge/internal/ports/adapters/process"
	"github.com/forPelevin/reelforge/internal/progress"
	"github.com/forPelevin/reelforge/internal/types"
	"github.com/forPelevin/reelforge/internal/usecase"
)

// ManifestName is the run state file written into the run directory.
const ManifestName = "run.json"

type Config struct {
	App     *config.Config
	Project types.Project
	// ProjectPath names the descriptor in history and seeds the default
	// output name. It may be empty for projects submitted over the API.
	ProjectPath string

	// Output overrides Project.OutputPath.
	Output string
	// WorkDir overrides App.Paths.WorkDir.
	WorkDir string
	// Parallel overrides App.Pipeline.ParallelStages when positive.
	Parallel   int
	NoCaptions bool
	// RunID is generated when empty.
	RunID string

	// Events receives progress. The caller owns the channel and closes it
	// after Run returns.
	Events  chan<- progress.Event
	Logger  *slog.Logger
	History *history.Store
	// Deps replaces the adapters built from App.Tools.
	Deps *usecase.Deps
}

func (c Config) Validate() error {
	if c.App == nil {
		return errors.New("app config is nil")
	}
	if len(c.Project.Clips) == 0 && !c.Project.Staged() {
		return fmt.Errorf("project lists no clips: %w", types.ErrNoInputMedia)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must be >= 0")
	}
	return nil
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	RunDir   string
	Output   string
	Captions string
	Manifest string
	Mode     string
	Total    time.Duration
}

func NewRunID() string { return uuid.NewString() }

func Run(ctx context.Context, cfg Config) (rep Report, err error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("config: %w", err)
	}
	app := cfg.App

	runID := cfg.RunID
	if runID == "" {
		runID = NewRunID()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logging.WithRun(logger, runID)

	workRoot := cfg.WorkDir
	if workRoot == "" {
		workRoot = app.Paths.WorkDir
	}
	runDir := filepath.Join(workRoot, runID)
	logger.Info("preparing workspace", "run_dir", runDir)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return Report{}, err
	}

	output, err := resolveOutput(cfg, time.Now().UTC())
	if err != nil {
		return Report{}, err
	}
	unlock, err := lockOutput(output)
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	rep = Report{RunID: runID, RunDir: runDir, Output: output}
	reporter := progress.NewReporter(runID, cfg.Events)
	started := time.Now().UTC()

	if cfg.History != nil {
		if herr := cfg.History.Begin(ctx, history.Run{
			ID:        runID,
			Project:   cfg.ProjectPath,
			Output:    output,
			WorkDir:   runDir,
			StartedAt: started,
		}); herr != nil {
			logger.Warn("failed to record run start", "error", herr)
		}
	}
	defer func() {
		final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if cfg.History != nil {
			if herr := cfg.History.Finish(final, runID, rep.Mode, rep.Total, err); herr != nil {
				logger.Warn("failed to record run end", "error", herr)
			}
		}
		reporter.Finish(final, err)
	}()

	d := buildDeps(app, logger)
	if cfg.Deps != nil {
		d = *cfg.Deps
		if d.Logger == nil {
			d.Logger = logger
		}
	}
	uc := usecase.New(d, Settings(app, runDir))

	if timeout := app.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	parallel := app.Pipeline.ParallelStages
	if cfg.Parallel > 0 {
		parallel = cfg.Parallel
	}
	res, err := uc.Run(ctx, usecase.Input{
		Project:  cfg.Project,
		Output:   output,
		Captions: app.Captions.Enabled && !cfg.NoCaptions,
		Parallel: parallel,
		Progress: reporter,
	})
	if err != nil {
		logger.Error("render failed", "error", err)
		return rep, err
	}
	rep.Mode = res.Mode
	rep.Total = res.Total
	rep.Captions = res.Captions

	manifest := types.Manifest{
		RunID:     runID,
		Mode:      res.Mode,
		Output:    res.Output,
		Captions:  res.Captions,
		TotalSec:  res.Total.Seconds(),
		Segments:  res.Segments,
		StartedAt: started,
		EndedAt:   time.Now().UTC(),
	}
	rep.Manifest, err = writeManifest(runDir, manifest)
	if err != nil {
		return rep, err
	}
	logger.Info("manifest written", "segments", len(manifest.Segments), "path", rep.Manifest)
	return rep, nil
}

// Settings maps the app config onto assembly settings for one run directory.
func Settings(app *config.Config, runDir string) assembly.Settings {
	set := assembly.DefaultSettings(runDir)
	set.Resolution = app.Resolution()
	set.FPS = app.Video.FPS
	set.VideoCodec = app.Encode.VideoCodec
	set.Preset = app.Encode.Preset
	set.CRF = app.Encode.CRF
	set.AudioCodec = app.Encode.AudioCodec
	set.AudioBitrate = app.Encode.AudioBitrate
	set.CaptionStyle = app.CaptionStyle()
	set.ScriptFonts = app.Captions.ScriptFonts
	set.Language = app.Narration.Language
	set.StageDefault = app.StageDefault()
	set.LegacyDefault = app.LegacyDefault()
	set.LoopBuffer = app.LoopBuffer()
	set.MaxLoopPicks = app.Pipeline.MaxLoopPicks
	return set
}

func buildDeps(app *config.Config, logger *slog.Logger) usecase.Deps {
	runner := process.New(logging.WithComponent(logger, "process"))
	v := ffmpeg.New(app.Tools.FFmpeg, app.Tools.FFprobe, runner)
	tts := edgetts.New(deps.ResolveEdgeTTS(app.Tools.EdgeTTS), edgetts.Voice{
		Name:  app.Narration.Voice,
		Rate:  app.Narration.Rate,
		Pitch: app.Narration.Pitch,
	}, runner)
	return usecase.Deps{
		Transcoder: v,
		Prober:     v,
		Narrator:   tts,
		Logger:     logger,
	}
}

func resolveOutput(cfg Config, now time.Time) (string, error) {
	out := cfg.Output
	if out == "" {
		out = cfg.Project.OutputPath
	}
	if out == "" {
		seed := cfg.ProjectPath
		if seed == "" {
			seed = cfg.Project.Topic
		}
		out = buildOutputPath(cfg.App.Paths.OutputDir, seed, now)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("resolve output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}

// lockOutput takes an advisory lock next to output so concurrent runs cannot
// write the same file. The lock file stays behind so every run locks the
// same inode.
func lockOutput(output string) (func(), error) {
	lock := flock.New(output + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", output, types.ErrOutputBusy)
	}
	return func() { _ = lock.Unlock() }, nil
}

func writeManifest(runDir string, m types.Manifest) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(runDir, ManifestName)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadManifest loads run.json from a run directory.
func ReadManifest(runDir string) (types.Manifest, error) {
	var m types.Manifest
	b, err := os.ReadFile(filepath.Join(runDir, ManifestName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

func buildOutputPath(outRoot, seed string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(seed), filepath.Ext(seed))
	name = normalizePathSegment(name)
	if name == "" {
		name = "reel"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", seed, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s.mp4", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Transcoder = (*ffmpeg.Adapter)(nil)
var _ ports.Prober = (*ffmpeg.Adapter)(nil)
var _ ports.Narrator = (*edgetts.Adapter)(nil)
var _ ports.ProcessRunner = (*process.Runner)(nil)
