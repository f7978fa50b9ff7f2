package subtitles

import (
	"iter"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/forPelevin/reelforge/internal/types"
)

const (
	// MinEntry is the floor applied to each caption before clamping to the
	// total duration.
	MinEntry = 1500 * time.Millisecond
	// LineWidth is the maximum characters per caption line.
	LineWidth = 40
)

// Generate splits text into sentences and times each one proportionally to
// its length over total. Lengths include the whitespace left after the
// preceding delimiter; only the caption text is trimmed. Only End is clamped to total, so a run of short
// sentences can pile up at the end of the timeline.
//
// The returned sequence is lazy and can be ranged over more than once.
func Generate(text string, total time.Duration) iter.Seq[types.CaptionEntry] {
	return func(yield func(types.CaptionEntry) bool) {
		sentences := splitSentences(text)
		chars := 0
		for _, s := range sentences {
			chars += s.runes
		}
		if chars == 0 {
			return
		}

		var running time.Duration
		for i, s := range sentences {
			share := float64(s.runes) / float64(chars)
			d := time.Duration(math.Round(share * float64(total)))
			if d < MinEntry {
				d = MinEntry
			}
			start := running
			end := min(start+d, total)
			running = end

			e := types.CaptionEntry{Index: i + 1, Start: start, End: end, Text: Wrap(s.text, LineWidth)}
			if !yield(e) {
				return
			}
		}
	}
}

// Entries materializes Generate.
func Entries(text string, total time.Duration) []types.CaptionEntry {
	return slices.Collect(Generate(text, total))
}

type sentence struct {
	text  string
	runes int
}

func splitSentences(text string) []sentence {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := make([]sentence, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		out = append(out, sentence{text: t, runes: utf8.RuneCountInString(p)})
	}
	return out
}

// Wrap greedily packs words into lines of at most width runes. A word longer
// than width stays whole on its own line.
func Wrap(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, w := range strings.Fields(s) {
		wl := utf8.RuneCountInString(w)
		if curLen > 0 && curLen+1+wl > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += wl
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n")
}
