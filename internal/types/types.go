package types

import "time"

// Project is one assembly request. Staged mode is selected when Stages is
// non-empty; otherwise the project is assembled as a single narration over
// the round-robin clip sequence.
type Project struct {
	Topic            string   `json:"topic" yaml:"topic"`
	Script           string   `json:"script" yaml:"script"`
	Clips            []string `json:"clips" yaml:"clips"`
	AudioPath        string   `json:"audio_path" yaml:"audio_path"`
	CaptionPath      string   `json:"caption_path" yaml:"caption_path"`
	OutputPath       string   `json:"output_path" yaml:"output_path"`
	NarrationSeconds float64  `json:"narration_seconds" yaml:"narration_seconds"`
	StageScripts     []string `json:"stage_scripts" yaml:"stage_scripts"`
	Stages           []Stage  `json:"stages" yaml:"stages"`
}

func (p Project) Staged() bool { return len(p.Stages) > 0 }

// StageText returns the narration text for stage i, or "" if none exists.
func (p Project) StageText(i int) string {
	if i < 0 || i >= len(p.StageScripts) {
		return ""
	}
	return p.StageScripts[i]
}

type Stage struct {
	Goal         string `json:"goal" yaml:"goal"`
	VisualSearch string `json:"visual_search" yaml:"visual_search"`
	ClipPath     string `json:"clip_path" yaml:"clip_path"`
}

func (s Stage) HasClip() bool { return s.ClipPath != "" }

// CaptionEntry is one timed caption. Text may contain line breaks.
type CaptionEntry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

type PreparedSegment struct {
	Path     string
	Duration time.Duration
}

// ProcessResult describes a finished external tool invocation.
type ProcessResult struct {
	ExitCode int
	Tail     []string
	Duration time.Duration
}

type Resolution struct {
	Width  int
	Height int
}

// Vertical is the 9:16 output frame.
var Vertical = Resolution{Width: 1080, Height: 1920}

func (r Resolution) Valid() bool { return r.Width > 0 && r.Height > 0 }

// Manifest is written as run.json next to the intermediate artifacts.
type Manifest struct {
	RunID     string          `json:"run_id"`
	Mode      string          `json:"mode"`
	Output    string          `json:"output"`
	Captions  string          `json:"captions,omitempty"`
	TotalSec  float64         `json:"total_sec"`
	Segments  []ManifestEntry `json:"segments"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
}

type ManifestEntry struct {
	Stage       int     `json:"stage"`
	Clip        string  `json:"clip"`
	Video       string  `json:"video"`
	Audio       string  `json:"audio,omitempty"`
	DurationSec float64 `json:"duration_sec"`
	Skipped     bool    `json:"skipped,omitempty"`
}
