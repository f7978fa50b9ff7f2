package edgetts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// Voice settings passed to edge-tts.
type Voice struct {
	Name  string
	Rate  string
	Pitch string
}

type Adapter struct {
	bin    string
	voice  Voice
	runner ports.ProcessRunner
}

func New(binPath string, voice Voice, runner ports.ProcessRunner) *Adapter {
	if binPath == "" {
		binPath = "edge-tts"
	}
	return &Adapter{bin: binPath, voice: voice, runner: runner}
}

// Narrate synthesizes text into outPath. A non-zero exit or a missing
// output file is reported as types.ErrTTSFailure.
func (a *Adapter) Narrate(ctx context.Context, text, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	res, err := a.runner.Run(ctx, ports.Command{
		Step: "narrate " + filepath.Base(outPath),
		Exe:  a.bin,
		Args: a.args(text, outPath),
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var te *types.ToolError
		if errors.As(err, &te) {
			return &types.ToolError{Kind: types.ErrTTSFailure, Step: te.Step, Result: te.Result, Err: te.Err}
		}
		return fmt.Errorf("edge-tts: %w: %w", types.ErrTTSFailure, err)
	}
	if st, err := os.Stat(outPath); err != nil || st.Size() == 0 {
		return &types.ToolError{
			Kind:   types.ErrTTSFailure,
			Step:   "narrate " + filepath.Base(outPath),
			Result: res,
			Err:    fmt.Errorf("output file not created: %s", outPath),
		}
	}
	return nil
}

func (a *Adapter) args(text, outPath string) []string {
	args := []string{}
	if a.voice.Name != "" {
		args = append(args, "--voice", a.voice.Name)
	}
	args = append(args, "--text="+text)
	if a.voice.Rate != "" {
		args = append(args, "--rate="+a.voice.Rate)
	}
	if a.voice.Pitch != "" {
		args = append(args, "--pitch="+a.voice.Pitch)
	}
	return append(args, "--write-media", outPath)
}
