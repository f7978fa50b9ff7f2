package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/captionstyle"
	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// MuxInput describes the final encode. Audio and Captions are optional.
type MuxInput struct {
	Video      string
	Audio      string
	Captions   string
	Total      time.Duration
	Output     string
	OnProgress func(float64)
}

// Muxer performs the final encode.
type Muxer struct {
	tc     ports.Transcoder
	set    Settings
	logger *slog.Logger
}

func NewMuxer(tc ports.Transcoder, set Settings, logger *slog.Logger) *Muxer {
	return &Muxer{tc: tc, set: set, logger: logger}
}

// Job builds the encode for in without running it.
func (m *Muxer) Job(in MuxInput) ffcmd.Job {
	job := ffcmd.Job{
		Inputs:     []ffcmd.Input{{Path: in.Video}},
		VideoCodec: m.set.VideoCodec,
		Preset:     m.set.Preset,
		CRF:        m.set.CRF,
		Duration:   in.Total,
		Shortest:   true,
		Output:     in.Output,
	}
	if in.Audio != "" {
		job.Inputs = append(job.Inputs, ffcmd.Input{Path: in.Audio})
		job.Maps = []string{"0:v", "1:a"}
		job.AudioCodec = m.set.AudioCodec
		job.AudioBitrate = m.set.AudioBitrate
	} else {
		job.AudioCodec = "copy"
	}
	if in.Captions != "" {
		style := captionstyle.Resolve(m.set.Language, m.set.CaptionStyle, m.set.ScriptFonts)
		job.VideoFilter = ffcmd.Chain{ffcmd.Subtitles(in.Captions, style)}
	}
	return job
}

// Mux encodes the final video and returns its path. A caption file that does
// not exist is skipped.
func (m *Muxer) Mux(ctx context.Context, in MuxInput) (string, error) {
	if in.Video == "" || in.Output == "" {
		return "", fmt.Errorf("mux: %w", types.ErrNoInputMedia)
	}
	if in.Captions != "" {
		if _, err := os.Stat(in.Captions); err != nil {
			m.logger.Warn("caption file missing, rendering without captions", "path", in.Captions)
			in.Captions = ""
		}
	}
	if err := os.MkdirAll(filepath.Dir(in.Output), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if err := m.tc.Transcode(ctx, "final render", m.Job(in), in.Total, in.OnProgress); err != nil {
		return "", err
	}
	if st, err := os.Stat(in.Output); err != nil || st.Size() == 0 {
		return "", &types.ToolError{
			Kind: types.ErrTranscodeFailure,
			Step: "final render",
			Err:  fmt.Errorf("output file not created: %s", in.Output),
		}
	}
	return in.Output, nil
}
