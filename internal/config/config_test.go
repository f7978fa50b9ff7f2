package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "cfg"))
	t.Chdir(tmp)

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatalf("expected no config file, got %s", path)
	}
	if cfg.Narration.Voice != "en-US-GuyNeural" || cfg.Narration.Rate != "+15%" || cfg.Narration.Pitch != "+2Hz" {
		t.Fatalf("unexpected narration defaults: %+v", cfg.Narration)
	}
	if cfg.Encode.CRF != 23 || cfg.Encode.Preset != "fast" || cfg.Encode.AudioBitrate != "192k" {
		t.Fatalf("unexpected encode defaults: %+v", cfg.Encode)
	}
	if cfg.Resolution().Width != 1080 || cfg.Resolution().Height != 1920 {
		t.Fatalf("unexpected resolution: %+v", cfg.Resolution())
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) || !strings.HasPrefix(cfg.Paths.WorkDir, tmp) {
		t.Fatalf("work dir not expanded: %s", cfg.Paths.WorkDir)
	}
	if cfg.StageDefault().Seconds() != 10 || cfg.LegacyDefault().Seconds() != 15 {
		t.Fatalf("unexpected default durations")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "reelforge.toml")
	body := `
[narration]
voice = "he-IL-AvriNeural"
language = "Hebrew"

[encode]
crf = 20

[pipeline]
parallel_stages = 4
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REELFORGE_VOICE", "he-IL-HilaNeural")
	t.Setenv("REELFORGE_WORK_DIR", filepath.Join(tmp, "work"))

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be read, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Narration.Voice != "he-IL-HilaNeural" {
		t.Fatalf("env override ignored: %s", cfg.Narration.Voice)
	}
	if cfg.Narration.Language != "Hebrew" || cfg.Encode.CRF != 20 || cfg.Pipeline.ParallelStages != 4 {
		t.Fatalf("file values ignored: %+v", cfg)
	}
	if cfg.Paths.WorkDir != filepath.Join(tmp, "work") {
		t.Fatalf("work dir = %s", cfg.Paths.WorkDir)
	}
	if cfg.Encode.Preset != "fast" {
		t.Fatalf("unset keys should keep defaults, got preset %q", cfg.Encode.Preset)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[encode]\nbitrate = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoad_ExplicitMissingPath(t *testing.T) {
	if _, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero width", mutate: func(c *Config) { c.Video.Width = 0 }},
		{name: "zero fps", mutate: func(c *Config) { c.Video.FPS = 0 }},
		{name: "crf range", mutate: func(c *Config) { c.Encode.CRF = 60 }},
		{name: "font size", mutate: func(c *Config) { c.Captions.FontSize = 0 }},
		{name: "stage default", mutate: func(c *Config) { c.Pipeline.StageDefaultSeconds = 0 }},
		{name: "loop picks", mutate: func(c *Config) { c.Pipeline.MaxLoopPicks = 0 }},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := toml.Unmarshal([]byte(sampleConfig), &cfg); err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	def := Default()
	if cfg.Narration != def.Narration || cfg.Encode != def.Encode || cfg.Video != def.Video || cfg.Pipeline != def.Pipeline {
		t.Fatalf("sample config drifted from defaults")
	}
	if cfg.Captions.ScriptFonts["Hebr"] != "Open Sans Hebrew" {
		t.Fatalf("sample script fonts missing")
	}
}

func TestCreateSample(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), "[narration]") {
		t.Fatalf("unexpected sample: %v", err)
	}
	if err := CreateSample(path); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
}
