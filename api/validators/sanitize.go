package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, collapses runs of
// whitespace to one space and truncates to maxLen runes.
func SanitizeString(input string, maxLen int) string {
	return truncateRunes(strings.Join(strings.FieldsFunc(dropControl(input, false), unicode.IsSpace), " "), maxLen)
}

// SanitizeMultiline is SanitizeString for free text such as shipping
// addresses: line breaks survive, blank lines do not.
func SanitizeMultiline(input string, maxLen int) string {
	lines := strings.Split(dropControl(input, true), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = SanitizeString(line, 0); line != "" {
			kept = append(kept, line)
		}
	}
	return truncateRunes(strings.Join(kept, "\n"), maxLen)
}

func dropControl(input string, keepNewlines bool) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' && keepNewlines:
			return r
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, input)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}
