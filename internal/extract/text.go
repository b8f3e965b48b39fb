package extract

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Truncate shortens s to at most limit runes, ending in "...". With
// wordBoundary set the cut backs off to the last space when one is
// reasonably close.
func Truncate(s string, limit int, wordBoundary bool) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	keep := limit - len(ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:limit])
	}

	cut := string([]rune(s)[:keep])
	if wordBoundary {
		if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
			cut = cut[:i]
		}
		cut = strings.TrimRight(cut, " ,;:")
	}
	return cut + ellipsis
}

// cleanText collapses runs of whitespace into single spaces
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
