package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/ports"
	"github.com/forPelevin/reelforge/internal/types"
)

// Concatenator joins prepared segments and narration tracks without
// re-encoding.
type Concatenator struct {
	tc     ports.Transcoder
	set    Settings
	logger *slog.Logger
}

func NewConcatenator(tc ports.Transcoder, set Settings, logger *slog.Logger) *Concatenator {
	return &Concatenator{tc: tc, set: set, logger: logger}
}

// Videos joins segments in order into <name>.mp4.
func (c *Concatenator) Videos(ctx context.Context, name string, segs []types.PreparedSegment) (string, error) {
	if len(segs) == 0 {
		return "", fmt.Errorf("concat videos: %w", types.ErrNoInputMedia)
	}
	paths := make([]string, len(segs))
	var total time.Duration
	for i, s := range segs {
		paths[i] = s.Path
		total += s.Duration
	}
	list := c.set.path(name + "_list.txt")
	if err := writePlaylist(list, paths); err != nil {
		return "", fmt.Errorf("write video list: %w", err)
	}
	out := c.set.path(name + ".mp4")
	if err := concatCopy(ctx, c.tc, "concat videos", list, out, total); err != nil {
		return "", err
	}
	return out, nil
}

// Audios joins narration tracks into <name>.mp3. A single track is returned
// as is and no tracks yields "".
func (c *Concatenator) Audios(ctx context.Context, name string, paths []string) (string, error) {
	switch len(paths) {
	case 0:
		return "", nil
	case 1:
		return paths[0], nil
	}
	list := c.set.path(name + "_list.txt")
	if err := writePlaylist(list, paths); err != nil {
		return "", fmt.Errorf("write audio list: %w", err)
	}
	out := c.set.path(name + ".mp3")
	if err := concatCopy(ctx, c.tc, "concat audio", list, out, 0); err != nil {
		return "", err
	}
	return out, nil
}

func concatCopy(ctx context.Context, tc ports.Transcoder, step, list, out string, total time.Duration) error {
	job := ffcmd.Job{
		Inputs: []ffcmd.Input{{Path: list, Concat: true}},
		Copy:   true,
		Output: out,
	}
	return tc.Transcode(ctx, step, job, total, nil)
}
