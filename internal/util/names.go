package util

import (
	"strings"
	"unicode"
)

const (
	nameRuneLimit = 24
	fallbackName  = "Player"
)

// CleanName normalizes a display name before it enters any record: control
// runes dropped, whitespace collapsed, length capped at 24 runes. An empty
// result falls back to "Player".
func CleanName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, raw)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return fallbackName
	}

	runes := []rune(cleaned)
	if len(runes) > nameRuneLimit {
		cleaned = strings.TrimSpace(string(runes[:nameRuneLimit]))
		if cleaned == "" {
			return fallbackName
		}
	}
	return cleaned
}
