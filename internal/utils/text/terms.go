package text

import (
	"strings"
	"unicode"
)

var stopwords = func() map[string]struct{} {
	words := []string{
		// Urdu
		"اور", "ہے", "کی", "ہےں", "ہوں", "سے", "کو", "میں", "کے", "لیے",
		"ہیں", "تھا", "تھی", "تھے", "کر", "گی", "گا", "گے", "نے", "یہ",
		"اس", "وہ", "آپ", "کہ", "یا", "تو", "پر", "بھی", "ہی", "ہو",
		"کا", "ایک",
		// English
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "have", "he", "in", "is", "it", "its", "of", "on", "or",
		"she", "that", "the", "their", "they", "this", "to", "was", "were",
		"will", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// IsStopword reports whether the lowercased word is a common Urdu or
// English function word.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// Words splits s into lowercased runs of letters, digits and combining marks.
func Words(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r))
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// Terms returns the Words of s with stopwords removed.
func Terms(s string) []string {
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}
