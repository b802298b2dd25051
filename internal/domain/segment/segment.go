// Package segment splits over-long documents into ordered chunks that fit a
// token budget.
//
// Splitting cascades from paragraphs to sentences to words. Consecutive
// paragraphs that fit are packed greedily into one chunk; a paragraph too
// large on its own has its sentences packed the same way, and a sentence
// that alone is too large has its words packed.
// A single word that still does not fit is emitted unmodified and flagged as
// oversized.
package segment

import (
	"docdigest/internal/domain/budget"
	"docdigest/internal/domain/entity"
)

// level is a step of the splitting cascade.
type level int

const (
	paragraphLevel level = iota
	sentenceLevel
	wordLevel
)

// units returns the trimmed, non-blank sub-spans of sp at this level.
func (l level) units(text string, sp span) []span {
	switch l {
	case paragraphLevel:
		return paragraphSpans(text, sp)
	case sentenceLevel:
		return sentenceSpans(text, sp)
	default:
		return wordSpans(text, sp)
	}
}

// Segmenter is stateless apart from its Budgeter and safe for concurrent use.
type Segmenter struct {
	budget budget.Budgeter
}

// New returns a Segmenter that measures chunks with b.
func New(b budget.Budgeter) *Segmenter {
	return &Segmenter{budget: b}
}

// Segment splits text into chunks of at most maxTokens tokens each, except
// chunks flagged Oversized. Chunks are 1-indexed, in document order, and are
// exact substrings of text. Blank input yields no chunks.
func (s *Segmenter) Segment(text string, maxTokens int) []entity.Chunk {
	var chunks []entity.Chunk
	emit := func(sp span, oversized bool) {
		chunks = append(chunks, s.chunk(text, sp, len(chunks)+1, oversized))
	}
	s.split(text, span{start: 0, end: len(text)}, paragraphLevel, maxTokens, emit)
	return chunks
}

// Whole returns the trimmed text as a single chunk, or nothing when blank.
func (s *Segmenter) Whole(text string) []entity.Chunk {
	sp := trimSpan(text, span{start: 0, end: len(text)})
	if sp.empty() {
		return nil
	}
	return []entity.Chunk{s.chunk(text, sp, 1, false)}
}

func (s *Segmenter) chunk(text string, sp span, index int, oversized bool) entity.Chunk {
	body := text[sp.start:sp.end]
	return entity.Chunk{
		Index:     index,
		Text:      body,
		Tokens:    s.budget.EstimateTokens(body),
		Start:     sp.start,
		End:       sp.end,
		Oversized: oversized,
	}
}

type emitFunc func(sp span, oversized bool)

func (s *Segmenter) split(text string, sp span, lvl level, max int, emit emitFunc) {
	s.pack(text, lvl.units(text, sp), lvl, max, emit)
}

// pack greedily merges consecutive units while the merged span fits. A unit
// that does not fit on its own closes the open chunk and descends one level,
// or is emitted as oversized at the word level.
func (s *Segmenter) pack(text string, units []span, lvl level, max int, emit emitFunc) {
	var cur span
	open := false
	flush := func() {
		if open {
			emit(cur, false)
			open = false
		}
	}

	for _, u := range units {
		if !s.fits(text, u, max) {
			flush()
			if lvl == wordLevel {
				emit(u, true)
			} else {
				s.split(text, u, lvl+1, max, emit)
			}
			continue
		}

		if open {
			merged := span{start: cur.start, end: u.end}
			if s.fits(text, merged, max) {
				cur = merged
				continue
			}
			flush()
		}
		cur, open = u, true
	}
	flush()
}

func (s *Segmenter) fits(text string, sp span, max int) bool {
	return s.budget.EstimateTokens(text[sp.start:sp.end]) <= max
}
