// Package text provides small rune-aware helpers shared by the pipeline,
// sources and sinks.
package text

import (
	"strings"
	"unicode/utf8"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
// Examples:
//
//	CountRunes("hello")   // returns 5
//	CountRunes("کھیل")    // returns 4
//	CountRunes("")        // returns 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Sample returns the first n runes of text, followed by "..." when the text
// was cut. n <= 0 yields an empty sample.
func Sample(text string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos] + "..."
		}
		i++
	}
	return text
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// CollapseSpace replaces every whitespace run with a single space and trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
