package ports

import (
	"context"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/types"
)

// Command is one external tool invocation. When Total and OnProgress are
// set, progress is reported as a percentage of Total.
type Command struct {
	Step       string
	Exe        string
	Args       []string
	Total      time.Duration
	OnProgress func(percent float64)
}

type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (types.ProcessResult, error)
}

// Transcoder executes ffmpeg jobs.
type Transcoder interface {
	Transcode(ctx context.Context, step string, job ffcmd.Job, total time.Duration, onProgress func(float64)) error
}

type Prober interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Narrator synthesizes speech for text into outPath.
type Narrator interface {
	Narrate(ctx context.Context, text, outPath string) error
}
