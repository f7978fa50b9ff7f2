package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/forPelevin/reelforge/internal/types"
)

// WriteSRT writes entries in SubRip format and returns how many were written.
func WriteSRT(w io.Writer, entries iter.Seq[types.CaptionEntry]) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for e := range entries {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", e.Index, srtTime(e.Start), srtTime(e.End), e.Text); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

// WriteSRTFile generates captions for text over total and writes them to
// path. It reports the number of entries; zero entries still produce an
// empty file.
func WriteSRTFile(path, text string, total time.Duration) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := WriteSRT(f, Generate(text, total))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write captions %s: %w", path, err)
	}
	return n, nil
}

func srtTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
