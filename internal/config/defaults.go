package config

const (
	defaultFFmpeg          = "ffmpeg"
	defaultFFprobe         = "ffprobe"
	defaultEdgeTTS         = "edge-tts"
	defaultVoice           = "en-US-GuyNeural"
	defaultRate            = "+15%"
	defaultPitch           = "+2Hz"
	defaultLanguage        = "English"
	defaultWidth           = 1080
	defaultHeight          = 1920
	defaultFPS             = 30
	defaultVideoCodec      = "libx264"
	defaultPreset          = "fast"
	defaultCRF             = 23
	defaultAudioCodec      = "aac"
	defaultAudioBitrate    = "192k"
	defaultFont            = "Arial"
	defaultFontSize        = 28
	defaultPrimaryColour   = "&H00FFFFFF"
	defaultOutlineColour   = "&H00000000"
	defaultBorderStyle     = 1
	defaultOutline         = 2.0
	defaultAlignment       = 2
	defaultMarginV         = 80
	defaultWorkDir         = "~/.local/share/reelforge/work"
	defaultOutputDir       = "~/Videos/reelforge"
	defaultStateDir        = "~/.local/share/reelforge"
	defaultParallelStages  = 1
	defaultStageSeconds    = 10.0
	defaultLegacySeconds   = 15.0
	defaultLoopBufferSecs  = 5.0
	defaultMaxLoopPicks    = 100
	defaultAPIBind         = "127.0.0.1:7495"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRunTimeoutHours = 3
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			EdgeTTS: defaultEdgeTTS,
		},
		Narration: Narration{
			Voice:    defaultVoice,
			Rate:     defaultRate,
			Pitch:    defaultPitch,
			Language: defaultLanguage,
		},
		Video: Video{
			Width:  defaultWidth,
			Height: defaultHeight,
			FPS:    defaultFPS,
		},
		Encode: Encode{
			VideoCodec:   defaultVideoCodec,
			Preset:       defaultPreset,
			CRF:          defaultCRF,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Captions: Captions{
			Enabled:       true,
			Font:          defaultFont,
			FontSize:      defaultFontSize,
			PrimaryColour: defaultPrimaryColour,
			OutlineColour: defaultOutlineColour,
			BorderStyle:   defaultBorderStyle,
			Outline:       defaultOutline,
			Alignment:     defaultAlignment,
			MarginV:       defaultMarginV,
		},
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			APIBind:   defaultAPIBind,
		},
		Pipeline: Pipeline{
			ParallelStages:       defaultParallelStages,
			StageDefaultSeconds:  defaultStageSeconds,
			LegacyDefaultSeconds: defaultLegacySeconds,
			LoopBufferSeconds:    defaultLoopBufferSecs,
			MaxLoopPicks:         defaultMaxLoopPicks,
			RunTimeoutHours:      defaultRunTimeoutHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
