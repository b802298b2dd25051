package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"docdigest/internal/utils/text"
)

var (
	// ErrNotTrained is returned by Train when no usable example is given.
	ErrNotTrained = errors.New("classifier has no training examples")
	// ErrNoEvidence is returned when the text shares no term with the
	// training vocabulary.
	ErrNoEvidence = errors.New("text has no known terms")
)

// Example is one labelled training text.
type Example struct {
	Text     string `yaml:"text"`
	Category string `yaml:"category"`
}

// Bayes is a multinomial naive Bayes classifier over L2-normalised TF-IDF
// features. It is immutable after Train and safe for concurrent use.
type Bayes struct {
	labels    []string
	idf       map[string]float64
	logPrior  []float64
	logLikely []map[string]float64
}

// Train fits a classifier on examples with additive smoothing alpha
// (1.0 is the usual Laplace smoothing).
func Train(examples []Example, alpha float64) (*Bayes, error) {
	docs := make([][]string, 0, len(examples))
	classOf := make([]int, 0, len(examples))
	index := make(map[string]int)
	var labels []string

	for _, ex := range examples {
		terms := text.Terms(ex.Text)
		if len(terms) == 0 || ex.Category == "" {
			continue
		}
		c, ok := index[ex.Category]
		if !ok {
			c = len(labels)
			index[ex.Category] = c
			labels = append(labels, ex.Category)
		}
		docs = append(docs, terms)
		classOf = append(classOf, c)
	}
	if len(docs) == 0 {
		return nil, ErrNotTrained
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("smoothing must be positive, got %v", alpha)
	}

	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool, len(d))
		for _, t := range d {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, f := range df {
		idf[t] = math.Log((1+n)/(1+float64(f))) + 1
	}

	b := &Bayes{
		labels:    labels,
		idf:       idf,
		logPrior:  make([]float64, len(labels)),
		logLikely: make([]map[string]float64, len(labels)),
	}

	counts := make([]int, len(labels))
	mass := make([]map[string]float64, len(labels))
	for c := range labels {
		mass[c] = make(map[string]float64)
	}
	for i, d := range docs {
		c := classOf[i]
		counts[c]++
		for t, w := range vectorize(d, idf) {
			mass[c][t] += w
		}
	}

	vocab := float64(len(idf))
	for c := range labels {
		b.logPrior[c] = math.Log(float64(counts[c]) / n)
		var total float64
		for _, w := range mass[c] {
			total += w
		}
		denom := total + alpha*vocab
		b.logLikely[c] = make(map[string]float64, len(idf))
		for t := range idf {
			b.logLikely[c][t] = math.Log((mass[c][t] + alpha) / denom)
		}
	}
	return b, nil
}

// Labels returns the labels seen during training, in first-seen order.
func (b *Bayes) Labels() []string {
	return append([]string(nil), b.labels...)
}

// Classify returns the most probable label for text. Ties go to the label
// seen first during training.
func (b *Bayes) Classify(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	x := vectorize(text.Terms(input), b.idf)
	if len(x) == 0 {
		return "", ErrNoEvidence
	}

	terms := make([]string, 0, len(x))
	for t := range x {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	best, bestScore := 0, math.Inf(-1)
	for c := range b.labels {
		score := b.logPrior[c]
		for _, t := range terms {
			score += x[t] * b.logLikely[c][t]
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return b.labels[best], nil
}

// vectorize returns the L2-normalised TF-IDF weights of the known terms.
func vectorize(terms []string, idf map[string]float64) map[string]float64 {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		if _, known := idf[t]; known {
			tf[t]++
		}
	}
	if len(tf) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tf))
	for t := range tf {
		keys = append(keys, t)
	}
	sort.Strings(keys)

	x := make(map[string]float64, len(tf))
	var norm float64
	for _, t := range keys {
		w := float64(tf[t]) * idf[t]
		x[t] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for t := range x {
		x[t] /= norm
	}
	return x
}
