package ffcmd

import (
	"strconv"
	"strings"

	"github.com/forPelevin/reelforge/internal/types"
)

// Filter is one filtergraph node, rendered as name=arg1:arg2.
type Filter struct {
	Name string
	Args []string
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	return f.Name + "=" + strings.Join(f.Args, ":")
}

// Chain is a linear filter chain, rendered comma separated.
type Chain []Filter

func (c Chain) String() string {
	parts := make([]string, 0, len(c))
	for _, f := range c {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ",")
}

// ScaleCover scales to cover res, crops the overflow and resets the sample
// aspect ratio.
func ScaleCover(res types.Resolution) Chain {
	w, h := strconv.Itoa(res.Width), strconv.Itoa(res.Height)
	return Chain{
		{Name: "scale", Args: []string{w, h, "force_original_aspect_ratio=increase"}},
		{Name: "crop", Args: []string{w, h}},
		{Name: "setsar", Args: []string{"1"}},
	}
}

// CaptionStyle maps onto the libass force_style override.
type CaptionStyle struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	OutlineColor string
	BorderStyle  int
	Outline      float64
	Shadow       int
	Alignment    int
	MarginV      int
}

func (s CaptionStyle) String() string {
	fields := []string{
		"FontName=" + s.FontName,
		"FontSize=" + strconv.Itoa(s.FontSize),
		"PrimaryColour=" + s.PrimaryColor,
		"OutlineColour=" + s.OutlineColor,
		"BorderStyle=" + strconv.Itoa(s.BorderStyle),
		"Outline=" + strconv.FormatFloat(s.Outline, 'f', 1, 64),
		"Shadow=" + strconv.Itoa(s.Shadow),
		"Alignment=" + strconv.Itoa(s.Alignment),
		"MarginV=" + strconv.Itoa(s.MarginV),
	}
	return strings.Join(fields, ",")
}

// Subtitles burns the caption file at path using style.
func Subtitles(path string, style CaptionStyle) Filter {
	return Filter{
		Name: "subtitles",
		Args: []string{
			"'" + EscapeFilterPath(path) + "'",
			"force_style='" + style.String() + "'",
		},
	}
}

// EscapeFilterPath makes a filesystem path safe inside a quoted filter
// argument: backslashes become forward slashes and colons are escaped.
func EscapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
