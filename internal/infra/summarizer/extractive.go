package summarizer

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"docdigest/internal/domain/budget"
	"docdigest/internal/domain/segment"
	"docdigest/internal/utils/text"
)

// DefaultSentences is how many top-ranked sentences an extractive summary
// aims for before the minimum length is considered.
const DefaultSentences = 3

// scoreFunc assigns a weight to every sentence of a text.
type scoreFunc func(sentences []string) []float64

// Extractive builds summaries from the highest scoring sentences of the
// input, kept in their original order.
type Extractive struct {
	budgeter        budget.Budgeter
	score           scoreFunc
	sentences       int
	metricsRecorder SummaryMetricsRecorder
}

// NewFrequency scores sentences by the mean relative frequency of their
// terms across the text.
func NewFrequency(b budget.Budgeter) *Extractive {
	return newExtractive(b, frequencyScores)
}

// NewTFIDF scores sentences by the sum of their L2-normalised TF-IDF
// vector, treating every sentence as a document.
func NewTFIDF(b budget.Budgeter) *Extractive {
	return newExtractive(b, tfidfScores)
}

func newExtractive(b budget.Budgeter, score scoreFunc) *Extractive {
	return &Extractive{
		budgeter:        b,
		score:           score,
		sentences:       DefaultSentences,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// WithSentences sets the target sentence count. n < 1 is ignored.
func (e *Extractive) WithSentences(n int) *Extractive {
	if n >= 1 {
		e.sentences = n
	}
	return e
}

// WithMetrics replaces the metrics recorder.
func (e *Extractive) WithMetrics(r SummaryMetricsRecorder) *Extractive {
	e.metricsRecorder = r
	return e
}

// Summarize implements the digest summarizer contract.
func (e *Extractive) Summarize(_ context.Context, input string, maxLen, minLen int) (string, error) {
	start := time.Now()
	sentences := segment.Sentences(input)
	if len(sentences) == 0 {
		return "", ErrNothingToSummarize
	}

	summary, withinLimit := e.pick(sentences, e.score(sentences), maxLen, minLen)
	if !withinLimit {
		e.metricsRecorder.RecordLimitExceeded()
	}
	e.metricsRecorder.RecordLength(e.budgeter.EstimateTokens(summary))
	e.metricsRecorder.RecordCompliance(withinLimit)
	e.metricsRecorder.RecordDuration(time.Since(start))
	return summary, nil
}

// pick selects sentences in score order. It stops after e.sentences picks
// once minLen is reached, and never exceeds maxLen. When even the best
// sentence is over budget it is truncated and withinLimit is false.
func (e *Extractive) pick(sentences []string, scores []float64, maxLen, minLen int) (string, bool) {
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	chosen := make([]bool, len(sentences))
	picked, tokens := 0, 0
	for _, idx := range order {
		if picked >= e.sentences && tokens >= minLen {
			break
		}
		chosen[idx] = true
		candidate := join(sentences, chosen)
		n := e.budgeter.EstimateTokens(candidate)
		if n > maxLen {
			chosen[idx] = false
			continue
		}
		picked, tokens = picked+1, n
	}

	if picked == 0 {
		best := sentences[order[0]]
		return strings.TrimSpace(e.budgeter.Truncate(best, maxLen)), false
	}
	return join(sentences, chosen), true
}

func join(sentences []string, chosen []bool) string {
	parts := make([]string, 0, len(sentences))
	for i, s := range sentences {
		if chosen[i] {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func frequencyScores(sentences []string) []float64 {
	terms := make([][]string, len(sentences))
	freq := make(map[string]int)
	top := 0
	for i, s := range sentences {
		terms[i] = text.Terms(s)
		for _, t := range terms[i] {
			freq[t]++
			if freq[t] > top {
				top = freq[t]
			}
		}
	}

	scores := make([]float64, len(sentences))
	for i, ts := range terms {
		if len(ts) == 0 {
			continue
		}
		for _, t := range ts {
			scores[i] += float64(freq[t]) / float64(top)
		}
		scores[i] /= float64(len(ts))
	}
	return scores
}

func tfidfScores(sentences []string) []float64 {
	n := float64(len(sentences))
	tfs := make([]map[string]int, len(sentences))
	df := make(map[string]int)
	for i, s := range sentences {
		tfs[i] = make(map[string]int)
		for _, t := range text.Terms(s) {
			if tfs[i][t] == 0 {
				df[t]++
			}
			tfs[i][t]++
		}
	}

	scores := make([]float64, len(sentences))
	for i, tf := range tfs {
		keys := make([]string, 0, len(tf))
		for t := range tf {
			keys = append(keys, t)
		}
		sort.Strings(keys)

		weights := make([]float64, 0, len(tf))
		var norm float64
		for _, t := range keys {
			idf := math.Log((1+n)/(1+float64(df[t]))) + 1
			w := float64(tf[t]) * idf
			weights = append(weights, w)
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for _, w := range weights {
			scores[i] += w / norm
		}
	}
	return scores
}
