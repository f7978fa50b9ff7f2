package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video: width and height must be > 0, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be > 0")
	}
	if c.Encode.CRF < 0 || c.Encode.CRF > 51 {
		return fmt.Errorf("encode.crf must be between 0 and 51, got %d", c.Encode.CRF)
	}
	if c.Encode.VideoCodec == "" || c.Encode.AudioCodec == "" {
		return errors.New("encode.video_codec and encode.audio_codec must be set")
	}
	if c.Captions.Enabled && c.Captions.FontSize <= 0 {
		return errors.New("captions.font_size must be > 0")
	}
	if c.Pipeline.StageDefaultSeconds <= 0 || c.Pipeline.LegacyDefaultSeconds <= 0 {
		return errors.New("pipeline default durations must be > 0")
	}
	if c.Pipeline.LoopBufferSeconds < 0 {
		return errors.New("pipeline.loop_buffer_seconds must be >= 0")
	}
	if c.Pipeline.MaxLoopPicks <= 0 {
		return errors.New("pipeline.max_loop_picks must be > 0")
	}
	if c.Pipeline.ParallelStages > 16 {
		return fmt.Errorf("pipeline.parallel_stages must be <= 16, got %d", c.Pipeline.ParallelStages)
	}
	if c.Pipeline.RunTimeoutHours <= 0 {
		return errors.New("pipeline.run_timeout_hours must be > 0")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
