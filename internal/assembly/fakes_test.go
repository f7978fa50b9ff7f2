package assembly

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/logging"
	"github.com/forPelevin/reelforge/internal/types"
)

type transcodeCall struct {
	step  string
	job   ffcmd.Job
	total time.Duration
}

type fakeTranscoder struct {
	mu       sync.Mutex
	calls    []transcodeCall
	failStep string
	noOutput bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, step string, job ffcmd.Job, total time.Duration, onProgress func(float64)) error {
	f.mu.Lock()
	f.calls = append(f.calls, transcodeCall{step: step, job: job, total: total})
	f.mu.Unlock()
	if step == f.failStep {
		return &types.ToolError{Kind: types.ErrTranscodeFailure, Step: step, Result: types.ProcessResult{ExitCode: 1}}
	}
	if onProgress != nil {
		onProgress(100)
	}
	if f.noOutput {
		return nil
	}
	return os.WriteFile(job.Output, []byte("media"), 0o644)
}

func (f *fakeTranscoder) steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.step
	}
	return out
}

func (f *fakeTranscoder) call(step string) (transcodeCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.step == step {
			return c, true
		}
	}
	return transcodeCall{}, false
}

// fakeProber answers by base name; unknown names fail like an unreadable file.
type fakeProber struct {
	durs map[string]time.Duration
}

func (f fakeProber) ProbeDuration(_ context.Context, path string) (time.Duration, error) {
	d, ok := f.durs[filepath.Base(path)]
	if !ok || d <= 0 {
		return 0, fmt.Errorf("probe %s: %w", path, types.ErrProbeFailure)
	}
	return d, nil
}

type fakeNarrator struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNarrator) Narrate(_ context.Context, text, outPath string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

type fixture struct {
	set   Settings
	tc    *fakeTranscoder
	probe fakeProber
	narr  *fakeNarrator
	prep  *Preparer
	synth *Synthesizer
}

func newFixture(t *testing.T, durs map[string]time.Duration) *fixture {
	t.Helper()
	set := DefaultSettings(t.TempDir())
	f := &fixture{
		set:   set,
		tc:    &fakeTranscoder{},
		probe: fakeProber{durs: durs},
		narr:  &fakeNarrator{},
	}
	log := logging.Discard()
	f.prep = NewPreparer(f.tc, f.probe, set, log)
	f.synth = NewSynthesizer(f.narr, f.probe, f.prep, set, log)
	return f
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	for _, ln := range strings.Split(string(b), "\n") {
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
