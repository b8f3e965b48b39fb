package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name         string
		in           string
		limit        int
		wordBoundary bool
		want         string
	}{
		{"short", "hello", 200, false, "hello"},
		{"exact", strings.Repeat("x", 200), 200, false, strings.Repeat("x", 200)},
		{"over", strings.Repeat("x", 201), 200, false, strings.Repeat("x", 197) + "..."},
		{"word boundary", "the quick brown fox jumps", 15, true, "the quick..."},
		{"word boundary without spaces", strings.Repeat("x", 20), 10, true, "xxxxxxx..."},
		{"tiny limit", "abcdef", 2, false, "ab"},
		{"disabled", "abcdef", 0, false, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.limit, tt.wordBoundary); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate_Runes(t *testing.T) {
	in := strings.Repeat("é", 250)
	got := Truncate(in, 200, false)
	if n := utf8.RuneCountInString(got); n != 200 {
		t.Errorf("rune count = %d, want 200", n)
	}
	if !utf8.ValidString(got) {
		t.Error("truncated string is not valid UTF-8")
	}
}
