package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/types"
)

type fakeTranscoder struct {
	mu       sync.Mutex
	jobs     map[string]ffcmd.Job
	totals   map[string]time.Duration
	order    []string
	failStep string
	onRun    func(step string)
}

func (f *fakeTranscoder) Transcode(_ context.Context, step string, job ffcmd.Job, total time.Duration, onProgress func(float64)) error {
	f.mu.Lock()
	if f.jobs == nil {
		f.jobs = map[string]ffcmd.Job{}
		f.totals = map[string]time.Duration{}
	}
	f.jobs[step] = job
	f.totals[step] = total
	f.order = append(f.order, step)
	hook := f.onRun
	f.mu.Unlock()

	if hook != nil {
		hook(step)
	}
	if step == f.failStep {
		return &types.ToolError{Kind: types.ErrTranscodeFailure, Step: step}
	}
	if onProgress != nil {
		onProgress(50)
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return err
	}
	return os.WriteFile(job.Output, []byte("media"), 0o644)
}

func (f *fakeTranscoder) job(step string) (ffcmd.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[step]
	return j, ok
}

func (f *fakeTranscoder) steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

type fakeProber struct {
	durs map[string]time.Duration
}

func (f fakeProber) ProbeDuration(_ context.Context, path string) (time.Duration, error) {
	d, ok := f.durs[filepath.Base(path)]
	if !ok {
		return 0, fmt.Errorf("probe %s: %w", path, types.ErrProbeFailure)
	}
	return d, nil
}

type fakeNarrator struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeNarrator) Narrate(_ context.Context, text, outPath string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}
