package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv lets REELFORGE_* variables override file values.
func (c *Config) applyEnv() {
	str := map[string]*string{
		"REELFORGE_FFMPEG":     &c.Tools.FFmpeg,
		"REELFORGE_FFPROBE":    &c.Tools.FFprobe,
		"REELFORGE_EDGE_TTS":   &c.Tools.EdgeTTS,
		"REELFORGE_VOICE":      &c.Narration.Voice,
		"REELFORGE_LANGUAGE":   &c.Narration.Language,
		"REELFORGE_WORK_DIR":   &c.Paths.WorkDir,
		"REELFORGE_OUTPUT_DIR": &c.Paths.OutputDir,
		"REELFORGE_STATE_DIR":  &c.Paths.StateDir,
		"REELFORGE_API_BIND":   &c.Paths.APIBind,
		"REELFORGE_LOG_LEVEL":  &c.Logging.Level,
		"REELFORGE_LOG_FORMAT": &c.Logging.Format,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := os.LookupEnv("REELFORGE_PARALLEL_STAGES"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Pipeline.ParallelStages = n
		}
	}
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeLogging()
	if c.Pipeline.ParallelStages <= 0 {
		c.Pipeline.ParallelStages = defaultParallelStages
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(orDefault(c.Paths.WorkDir, defaultWorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(orDefault(c.Paths.OutputDir, defaultOutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(orDefault(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	c.Paths.APIBind = orDefault(c.Paths.APIBind, defaultAPIBind)
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = orDefault(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = orDefault(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.EdgeTTS = orDefault(c.Tools.EdgeTTS, defaultEdgeTTS)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
