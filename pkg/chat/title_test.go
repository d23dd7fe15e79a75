package chat

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "short content used verbatim",
			content:  "How do I configure S3 lifecycle rules?",
			expected: "How do I configure S3 lifecycle rules?",
		},
		{
			name:     "surrounding whitespace trimmed",
			content:  "   hello world   ",
			expected: "hello world",
		},
		{
			name:     "exactly fifty runes kept whole",
			content:  strings.Repeat("a", 50),
			expected: strings.Repeat("a", 50),
		},
		{
			name:     "fifty-one runes truncated with ellipsis",
			content:  strings.Repeat("a", 51),
			expected: strings.Repeat("a", 47) + "…",
		},
		{
			name:     "truncation counts runes not bytes",
			content:  strings.Repeat("日", 51),
			expected: strings.Repeat("日", 47) + "…",
		},
		{
			name:     "empty content stays empty",
			content:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.content)
			if got != tt.expected {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.content, got, tt.expected)
			}
		})
	}
}
