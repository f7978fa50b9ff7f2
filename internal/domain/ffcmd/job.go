package ffcmd

import (
	"strconv"
	"time"
)

// Input is one -i source. Concat inputs are read with the concat demuxer.
type Input struct {
	Path   string
	Concat bool
}

// Job is a single ffmpeg invocation.
type Job struct {
	Inputs      []Input
	VideoFilter Chain
	Maps        []string

	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	// Copy stream-copies every stream; it overrides the codec fields.
	Copy bool

	FrameRate int
	NoAudio   bool
	Duration  time.Duration
	Shortest  bool

	Output string
}

// Args resolves the job into ffmpeg arguments, without the executable.
func (j Job) Args() []string {
	args := make([]string, 0, 32)
	args = append(args, "-hide_banner", "-nostdin")

	for _, in := range j.Inputs {
		if in.Concat {
			args = append(args, "-f", "concat", "-safe", "0")
		}
		args = append(args, "-i", in.Path)
	}

	if len(j.VideoFilter) > 0 {
		args = append(args, "-vf", j.VideoFilter.String())
	}
	for _, m := range j.Maps {
		args = append(args, "-map", m)
	}

	if j.FrameRate > 0 {
		args = append(args, "-r", strconv.Itoa(j.FrameRate))
	}
	if j.NoAudio {
		args = append(args, "-an")
	}

	switch {
	case j.Copy:
		args = append(args, "-c", "copy")
	default:
		if j.AudioCodec != "" {
			args = append(args, "-c:a", j.AudioCodec)
			if j.AudioBitrate != "" && j.AudioCodec != "copy" {
				args = append(args, "-b:a", j.AudioBitrate)
			}
		}
		if j.VideoCodec != "" {
			args = append(args, "-c:v", j.VideoCodec)
			if j.Preset != "" {
				args = append(args, "-preset", j.Preset)
			}
			if j.CRF > 0 {
				args = append(args, "-crf", strconv.Itoa(j.CRF))
			}
		}
	}

	if j.Duration > 0 {
		args = append(args, "-t", Seconds(j.Duration))
	}
	if j.Shortest {
		args = append(args, "-shortest")
	}

	args = append(args, "-y", j.Output)
	return args
}

// Seconds formats d with two decimals, the precision used for -t.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64)
}
