package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// span is a half-open byte range [start, end) of the document text.
type span struct {
	start, end int
}

func (s span) empty() bool { return s.end <= s.start }

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// titles are abbreviations whose trailing period does not end a sentence.
var titles = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "st": {}, "prof": {},
	"jr": {}, "sr": {}, "vs": {}, "fig": {},
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '۔', '。', '！', '？', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', '»', ')', ']':
		return true
	}
	return false
}

func trimSpan(text string, sp span) span {
	for sp.start < sp.end {
		r, size := utf8.DecodeRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.start += size
	}
	for sp.end > sp.start {
		r, size := utf8.DecodeLastRuneInString(text[sp.start:sp.end])
		if !unicode.IsSpace(r) {
			break
		}
		sp.end -= size
	}
	return sp
}

func appendTrimmed(out []span, text string, sp span) []span {
	if sp = trimSpan(text, sp); !sp.empty() {
		out = append(out, sp)
	}
	return out
}

// paragraphSpans splits sp on blank lines.
func paragraphSpans(text string, sp span) []span {
	var out []span
	start := sp.start
	for _, m := range paragraphBreak.FindAllStringIndex(text[sp.start:sp.end], -1) {
		out = appendTrimmed(out, text, span{start: start, end: sp.start + m[0]})
		start = sp.start + m[1]
	}
	return appendTrimmed(out, text, span{start: start, end: sp.end})
}

// sentenceSpans splits sp after terminal punctuation that is followed by
// whitespace or the end of the span. Trailing quotes and brackets stay with
// the sentence they close.
func sentenceSpans(text string, sp span) []span {
	var out []span
	start := sp.start
	for pos := sp.start; pos < sp.end; {
		r, size := utf8.DecodeRuneInString(text[pos:sp.end])
		termAt := pos
		pos += size
		if !isTerminator(r) {
			continue
		}

		for pos < sp.end {
			next, n := utf8.DecodeRuneInString(text[pos:sp.end])
			if !isTerminator(next) && !isCloser(next) {
				break
			}
			pos += n
		}
		if pos < sp.end {
			next, _ := utf8.DecodeRuneInString(text[pos:sp.end])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if r == '.' && isAbbreviation(text[start:termAt]) {
			continue
		}

		out = appendTrimmed(out, text, span{start: start, end: pos})
		start = pos
	}
	return appendTrimmed(out, text, span{start: start, end: sp.end})
}

// isAbbreviation reports whether the last word of prefix, which precedes a
// period, is a known title or contains an inner period as in "e.g" or "U.S".
func isAbbreviation(prefix string) bool {
	word := prefix
	if i := strings.LastIndexFunc(prefix, unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(prefix[i:])
		word = prefix[i+size:]
	}
	word = strings.TrimLeft(word, "\"'([“‘«")
	if word == "" {
		return false
	}
	if strings.Contains(word, ".") {
		return true
	}
	_, ok := titles[strings.ToLower(word)]
	return ok
}

// wordSpans splits sp on whitespace.
func wordSpans(text string, sp span) []span {
	var out []span
	start := -1
	for pos := sp.start; pos < sp.end; {
		r, size := utf8.DecodeRuneInString(text[pos:sp.end])
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, span{start: start, end: pos})
				start = -1
			}
		} else if start < 0 {
			start = pos
		}
		pos += size
	}
	if start >= 0 {
		out = append(out, span{start: start, end: sp.end})
	}
	return out
}

// Sentences returns the trimmed sentences of text in order.
func Sentences(text string) []string {
	spans := sentenceSpans(text, span{start: 0, end: len(text)})
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.start:sp.end]
	}
	return out
}

// Paragraphs returns the trimmed, non-blank paragraphs of text in order.
func Paragraphs(text string) []string {
	spans := paragraphSpans(text, span{start: 0, end: len(text)})
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp.start:sp.end]
	}
	return out
}
