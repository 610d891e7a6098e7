// Number formatting utilities for term values.

package format

import (
	"fmt"
	"strings"
)

// FormatNumberString inserts thousand separators into a decimal string.
// A leading minus sign is preserved.
func FormatNumberString(s string) string {
	if s == "" {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var b strings.Builder
	b.Grow(len(prefix) + n + (n-1)/3)
	b.WriteString(prefix)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// TruncateDigits shortens a long decimal string to its first and last
// edge digits around an elision marker. Strings of at most 2*edge+10
// characters are returned unchanged.
func TruncateDigits(s string, edge int) string {
	if edge <= 0 || len(s) <= 2*edge+10 {
		return s
	}
	return fmt.Sprintf("%s...%s (%d digits)", s[:edge], s[len(s)-edge:], len(s))
}

// PadDigits left-pads s with zeros to width characters.
func PadDigits(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
