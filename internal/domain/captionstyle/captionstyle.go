// Package captionstyle picks the burn-in caption style for a narration
// language. Languages written in a non-Latin script get a font that covers
// that script; everything else keeps the configured base font.
package captionstyle

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/forPelevin/reelforge/internal/domain/ffcmd"
)

// DefaultScriptFonts maps ISO 15924 script codes to fonts.
var DefaultScriptFonts = map[string]string{
	"Hebr": "Open Sans Hebrew",
	"Arab": "Noto Naskh Arabic",
	"Deva": "Noto Sans Devanagari",
	"Thai": "Noto Sans Thai",
	"Hans": "Noto Sans CJK SC",
	"Hant": "Noto Sans CJK TC",
	"Jpan": "Noto Sans CJK JP",
	"Kore": "Noto Sans CJK KR",
}

// known is searched when a language is given by its English name.
var known = []language.Tag{
	language.English, language.Spanish, language.French, language.German,
	language.Italian, language.Portuguese, language.Dutch, language.Polish,
	language.Russian, language.Ukrainian, language.Greek, language.Turkish,
	language.Hebrew, language.Arabic, language.Persian, language.Hindi,
	language.Thai, language.Japanese, language.Korean, language.Chinese,
}

// Tag resolves a language given as a BCP 47 tag ("he", "he-IL"), an
// edge-tts voice name ("he-IL-AvriNeural") or an English language name
// ("Hebrew"). The second result is false when nothing matched.
func Tag(lang string) (language.Tag, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return language.Und, false
	}
	if t, err := language.Parse(lang); err == nil {
		return t, true
	}
	if parts := strings.Split(lang, "-"); len(parts) >= 2 {
		if t, err := language.Parse(parts[0] + "-" + parts[1]); err == nil {
			return t, true
		}
	}
	fold := cases.Fold()
	want := fold.String(lang)
	namer := display.English.Languages()
	for _, t := range known {
		if fold.String(namer.Name(t)) == want {
			return t, true
		}
	}
	return language.Und, false
}

// Script returns the ISO 15924 code the language is most likely written in.
func Script(lang string) string {
	t, ok := Tag(lang)
	if !ok {
		return "Latn"
	}
	s, _ := t.Script()
	return s.String()
}

// FontFor returns the caption font for lang. overrides take precedence over
// DefaultScriptFonts and are keyed by script code.
func FontFor(lang, base string, overrides map[string]string) string {
	script := Script(lang)
	if f, ok := overrides[script]; ok && f != "" {
		return f
	}
	if f, ok := DefaultScriptFonts[script]; ok {
		return f
	}
	return base
}

// Resolve returns base with its font substituted for lang.
func Resolve(lang string, base ffcmd.CaptionStyle, overrides map[string]string) ffcmd.CaptionStyle {
	base.FontName = FontFor(lang, base.FontName, overrides)
	return base
}

// RightToLeft reports whether the language's script is written right to left.
func RightToLeft(lang string) bool {
	switch Script(lang) {
	case "Hebr", "Arab", "Syrc", "Thaa":
		return true
	}
	return false
}
