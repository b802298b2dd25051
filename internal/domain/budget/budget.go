// Package budget estimates token counts and truncates text to a token ceiling.
//
// Every Budgeter must be deterministic and monotonic in text length, and
// Truncate must return a prefix of its input that ends on a token boundary.
package budget

import (
	"unicode"
	"unicode/utf8"
)

// DefaultRunesPerToken is the number of word characters counted as one token
// by the heuristic budgeter.
const DefaultRunesPerToken = 4

// Budgeter converts text to a token count and cuts text to fit a token ceiling.
type Budgeter interface {
	// EstimateTokens returns the token count of text.
	EstimateTokens(text string) int
	// Truncate returns the longest token-aligned prefix of text whose
	// estimate does not exceed max. Empty text or max <= 0 yields "".
	Truncate(text string, max int) string
}

// Heuristic is a script-agnostic Budgeter that needs no vocabulary.
//
// A run of letters, digits and combining marks is cut into pieces of
// RunesPerToken runes, each piece counting as one token. Every other
// non-space rune (punctuation, symbols) is a token of its own. Whitespace
// only separates tokens.
type Heuristic struct {
	runesPerToken int
}

// NewHeuristic returns a Heuristic budgeter. Non-positive values use
// DefaultRunesPerToken.
func NewHeuristic(runesPerToken int) *Heuristic {
	if runesPerToken <= 0 {
		runesPerToken = DefaultRunesPerToken
	}
	return &Heuristic{runesPerToken: runesPerToken}
}

// RunesPerToken returns the configured piece size.
func (h *Heuristic) RunesPerToken() int {
	return h.runesPerToken
}

// EstimateTokens implements Budgeter.
func (h *Heuristic) EstimateTokens(text string) int {
	n := 0
	h.scan(text, func(_ int) bool {
		n++
		return true
	})
	return n
}

// Truncate implements Budgeter.
func (h *Heuristic) Truncate(text string, max int) string {
	if text == "" || max <= 0 {
		return ""
	}

	count, cut, over := 0, 0, false
	h.scan(text, func(end int) bool {
		if count == max {
			over = true
			return false
		}
		count++
		cut = end
		return true
	})
	if !over {
		return text
	}
	return text[:cut]
}

// scan calls emit with the end byte offset of every token in order until
// emit returns false.
func (h *Heuristic) scan(text string, emit func(end int) bool) {
	pieceLen := 0
	for pos := 0; pos < len(text); {
		r, size := utf8.DecodeRuneInString(text[pos:])
		next := pos + size

		if isWordRune(r) {
			pieceLen++
			atRunEnd := true
			if next < len(text) {
				nr, _ := utf8.DecodeRuneInString(text[next:])
				atRunEnd = !isWordRune(nr)
			}
			if pieceLen == h.runesPerToken || atRunEnd {
				pieceLen = 0
				if !emit(next) {
					return
				}
			}
			pos = next
			continue
		}

		pieceLen = 0
		if !unicode.IsSpace(r) {
			if !emit(next) {
				return
			}
		}
		pos = next
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
