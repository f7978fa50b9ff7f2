package ffmpeg

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

type recordingRunner struct {
	cmds []ports.Command
	err  error
}

func (r *recordingRunner) Run(_ context.Context, c ports.Command) (types.ProcessResult, error) {
	r.cmds = append(r.cmds, c)
	return types.ProcessResult{}, r.err
}

func TestTranscode_ResolvesJobAtBoundary(t *testing.T) {
	t.Parallel()

	rr := &recordingRunner{}
	a := New("", "", rr)
	job := ffcmd.Job{Inputs: []ffcmd.Input{{Path: "in.mp4"}}, Copy: true, Output: "out.mp4"}
	if err := a.Transcode(context.Background(), "copy", job, 5*time.Second, nil); err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if len(rr.cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(rr.cmds))
	}
	c := rr.cmds[0]
	if c.Exe != "ffmpeg" || c.Step != "copy" || c.Total != 5*time.Second {
		t.Fatalf("unexpected command: %+v", c)
	}
	if !slices.Equal(c.Args, job.Args()) {
		t.Fatalf("args = %v", c.Args)
	}
}

func TestTranscode_PropagatesFailure(t *testing.T) {
	t.Parallel()

	rr := &recordingRunner{err: &types.ToolError{Kind: types.ErrTranscodeFailure, Step: "x"}}
	err := New("/opt/ffmpeg", "", rr).Transcode(context.Background(), "x", ffcmd.Job{Output: "o"}, 0, nil)
	if !errors.Is(err, types.ErrTranscodeFailure) {
		t.Fatalf("expected transcode failure, got %v", err)
	}
	if rr.cmds[0].Exe != "/opt/ffmpeg" {
		t.Fatalf("exe = %q", rr.cmds[0].Exe)
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "12.500000\n", want: 12500 * time.Millisecond},
		{in: "N/A\n", wantErr: true},
		{in: "0.000000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseDuration(tc.in)
		if tc.wantErr {
			if !errors.Is(err, types.ErrProbeFailure) {
				t.Fatalf("parseDuration(%q) err = %v, want probe failure", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseDuration(%q) = %v, %v", tc.in, got, err)
		}
	}
}
