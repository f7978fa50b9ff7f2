package assembly

import (
	"path/filepath"
	"time"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/types"
)

// Settings configures every assembly component for one run.
type Settings struct {
	// Dir receives all intermediate artifacts of the run.
	Dir        string
	Resolution types.Resolution
	FPS        int

	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string

	CaptionStyle ffcmd.CaptionStyle
	ScriptFonts  map[string]string
	Language     string

	StageDefault  time.Duration
	LegacyDefault time.Duration
	LoopBuffer    time.Duration
	MaxLoopPicks  int
}

// DefaultSettings mirrors the built-in configuration.
func DefaultSettings(dir string) Settings {
	return Settings{
		Dir:          dir,
		Resolution:   types.Vertical,
		FPS:          30,
		VideoCodec:   "libx264",
		Preset:       "fast",
		CRF:          23,
		AudioCodec:   "aac",
		AudioBitrate: "192k",
		CaptionStyle: ffcmd.CaptionStyle{
			FontName:     "Arial",
			FontSize:     28,
			PrimaryColor: "&H00FFFFFF",
			OutlineColor: "&H00000000",
			BorderStyle:  1,
			Outline:      2.0,
			Alignment:    2,
			MarginV:      80,
		},
		StageDefault:  10 * time.Second,
		LegacyDefault: 15 * time.Second,
		LoopBuffer:    5 * time.Second,
		MaxLoopPicks:  100,
	}
}

func (s Settings) path(name string) string {
	return filepath.Join(s.Dir, name)
}
