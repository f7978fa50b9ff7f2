package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
	"github.com/forPelevin/reelforge/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools holds executable paths. Bare names are looked up on PATH.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	EdgeTTS string `toml:"edge_tts"`
}

type Narration struct {
	Voice string `toml:"voice"`
	Rate  string `toml:"rate"`
	Pitch string `toml:"pitch"`
	// Language drives caption font substitution. Accepts a BCP 47 tag or an
	// English language name.
	Language string `toml:"language"`
}

type Video struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

type Encode struct {
	VideoCodec   string `toml:"video_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
}

type Captions struct {
	Enabled       bool              `toml:"enabled"`
	Font          string            `toml:"font"`
	FontSize      int               `toml:"font_size"`
	PrimaryColour string            `toml:"primary_colour"`
	OutlineColour string            `toml:"outline_colour"`
	BorderStyle   int               `toml:"border_style"`
	Outline       float64           `toml:"outline"`
	Shadow        int               `toml:"shadow"`
	Alignment     int               `toml:"alignment"`
	MarginV       int               `toml:"margin_v"`
	ScriptFonts   map[string]string `toml:"script_fonts"`
}

type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	APIBind   string `toml:"api_bind"`
}

type Pipeline struct {
	ParallelStages       int     `toml:"parallel_stages"`
	StageDefaultSeconds  float64 `toml:"stage_default_seconds"`
	LegacyDefaultSeconds float64 `toml:"legacy_default_seconds"`
	LoopBufferSeconds    float64 `toml:"loop_buffer_seconds"`
	MaxLoopPicks         int     `toml:"max_loop_picks"`
	RunTimeoutHours      int     `toml:"run_timeout_hours"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config is built once per process and passed down explicitly.
type Config struct {
	Tools     Tools     `toml:"tools"`
	Narration Narration `toml:"narration"`
	Video     Video     `toml:"video"`
	Encode    Encode    `toml:"encode"`
	Captions  Captions  `toml:"captions"`
	Paths     Paths     `toml:"paths"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, "reelforge", "config.toml"))
	}
	return expandPath("~/.config/reelforge/config.toml")
}

// Load reads the config file at path, or the default locations when path is
// empty, then applies environment overrides. A missing file yields defaults.
// It reports the resolved path and whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if exists {
		f, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := toml.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config %s: %w", expanded, err)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("reelforge.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// CreateSample writes the annotated sample config to path. It refuses to
// overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the work, output and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Resolution is the output frame size.
func (c *Config) Resolution() types.Resolution {
	return types.Resolution{Width: c.Video.Width, Height: c.Video.Height}
}

// CaptionStyle is the burn-in style before language font substitution.
func (c *Config) CaptionStyle() ffcmd.CaptionStyle {
	return ffcmd.CaptionStyle{
		FontName:     c.Captions.Font,
		FontSize:     c.Captions.FontSize,
		PrimaryColor: c.Captions.PrimaryColour,
		OutlineColor: c.Captions.OutlineColour,
		BorderStyle:  c.Captions.BorderStyle,
		Outline:      c.Captions.Outline,
		Shadow:       c.Captions.Shadow,
		Alignment:    c.Captions.Alignment,
		MarginV:      c.Captions.MarginV,
	}
}

// HistoryPath is the sqlite run history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Pipeline.RunTimeoutHours) * time.Hour
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func (c *Config) StageDefault() time.Duration  { return seconds(c.Pipeline.StageDefaultSeconds) }
func (c *Config) LegacyDefault() time.Duration { return seconds(c.Pipeline.LegacyDefaultSeconds) }
func (c *Config) LoopBuffer() time.Duration    { return seconds(c.Pipeline.LoopBufferSeconds) }

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the same ~ and relative path rules used for config
// values.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
