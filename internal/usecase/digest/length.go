package digest

// LengthBudget bounds the summary length requested for one chunk.
type LengthBudget struct {
	Max int
	Min int
}

// LengthPolicy derives per-chunk summary lengths from the document-level
// budget. ok is false when chunks should be skipped rather than summarized.
type LengthPolicy interface {
	PerChunk(max, min, chunks int) (lengths LengthBudget, ok bool)
}

// ProportionalLength divides the document budget evenly between chunks so
// the merged summary stays within it. A per-chunk maximum below MinViable
// skips the chunks.
type ProportionalLength struct {
	MinViable int
}

// PerChunk implements LengthPolicy.
func (p ProportionalLength) PerChunk(max, min, chunks int) (LengthBudget, bool) {
	if chunks < 1 {
		chunks = 1
	}
	return bounded(max/chunks, min/chunks, p.MinViable)
}

// FixedLength requests the same lengths for every chunk regardless of how
// many there are. The merged summary grows with the chunk count.
type FixedLength struct {
	MinViable int
}

// PerChunk implements LengthPolicy.
func (f FixedLength) PerChunk(max, min, _ int) (LengthBudget, bool) {
	return bounded(max, min, f.MinViable)
}

func bounded(max, min, minViable int) (LengthBudget, bool) {
	if max <= 0 || max < minViable {
		return LengthBudget{}, false
	}
	if min < 0 {
		min = 0
	}
	if min >= max {
		min = max / 2
	}
	return LengthBudget{Max: max, Min: min}, true
}
