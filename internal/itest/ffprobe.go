//go:build integration

package itest

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

type mediaInfo struct {
	width    int
	height   int
	duration float64
	hasAudio bool
}

func probeMedia(t *testing.T, path string) mediaInfo {
	t.Helper()
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height:format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("ffprobe %s: %v\n%s", path, err, string(b))
	}
	var info mediaInfo
	for _, line := range strings.Split(string(b), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch k {
		case "codec_type":
			if v == "audio" {
				info.hasAudio = true
			}
		case "width":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				info.width = n
			}
		case "height":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				info.height = n
			}
		case "duration":
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				info.duration = f
			}
		}
	}
	return info
}

// makeClip renders a test pattern clip of the given size and length.
func makeClip(t *testing.T, dir, name string, w, h int, seconds float64) string {
	t.Helper()
	out := filepath.Join(dir, name)
	runFFmpeg(t,
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=size=%dx%d:rate=30:duration=%.2f", w, h, seconds),
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		out,
	)
	return out
}

// makeTone renders a sine tone standing in for narration.
func makeTone(t *testing.T, dir, name string, seconds float64) string {
	t.Helper()
	out := filepath.Join(dir, name)
	runFFmpeg(t,
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.2f", seconds),
		"-c:a", "libmp3lame",
		out,
	)
	return out
}

func runFFmpeg(t *testing.T, args ...string) {
	t.Helper()
	full := append([]string{"-hide_banner", "-y"}, args...)
	if b, err := exec.Command("ffmpeg", full...).CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}

func requireTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available: %v", tool, err)
		}
	}
}

func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for range 10 {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate go.mod")
}
