package normalizer

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

const (
	ideographicSpace = 0x3000
	fullwidthFirst   = 0xFF01
	fullwidthLast    = 0xFF5E
	fullwidthOffset  = 0xFEE0
)

// foldWidth maps one rune to its half-width form
func foldWidth(r rune) rune {
	switch {
	case r == ideographicSpace:
		return ' '
	case r >= fullwidthFirst && r <= fullwidthLast:
		return r - fullwidthOffset
	}
	return r
}

// FullwidthToHalfwidth converts full-width ASCII variants and the
// ideographic space to half-width. Rune count is preserved.
func FullwidthToHalfwidth(s string) string {
	out, _, err := transform.String(runes.Map(foldWidth), s)
	if err != nil {
		return strings.Map(foldWidth, s)
	}
	return out
}

// VisualWidth counts display columns, wide and full-width runes take two
func VisualWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

// PadText right-pads s with spaces up to the given display width
func PadText(s string, target int) string {
	pad := target - VisualWidth(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
