package resolve

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short string untouched", "attention", 200, "attention"},
		{"ascii cut at limit", "attention", 6, "attent"},
		{"two-byte rune not split", "café", 4, "caf"},
		{"three-byte runes not split", strings.Repeat("概念", 10), 7, "概念"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
			if len(got) > tt.maxLen {
				t.Errorf("truncate(%q, %d) is %d bytes", tt.in, tt.maxLen, len(got))
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.in, tt.maxLen, got)
			}
		})
	}
}
