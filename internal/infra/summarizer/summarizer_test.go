package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdigest/internal/domain/budget"
)

type fakeCompleter struct {
	reply     string
	err       error
	prompt    string
	maxTokens int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	f.prompt, f.maxTokens = prompt, maxTokens
	return f.reply, f.err
}

func (f *fakeCompleter) Provider() string { return "fake" }

type recordingMetrics struct {
	mu         sync.Mutex
	lengths    []int
	exceeded   int
	compliance []bool
}

func (r *recordingMetrics) RecordLength(tokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lengths = append(r.lengths, tokens)
}

func (r *recordingMetrics) RecordLimitExceeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceeded++
}

func (r *recordingMetrics) RecordCompliance(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compliance = append(r.compliance, ok)
}

func (r *recordingMetrics) RecordDuration(time.Duration) {}

const cricketText = "Cricket team wins the cricket final. The weather was mild. " +
	"Cricket fans celebrate the cricket team victory."

/* ───────── Model ───────── */

func TestModel_Summarize(t *testing.T) {
	fc := &fakeCompleter{reply: "  Pakistan won the final.  "}
	rec := &recordingMetrics{}
	m := NewModel(fc, budget.NewHeuristic(4), "Urdu").WithMetrics(rec)

	got, err := m.Summarize(context.Background(), cricketText, 40, 10)
	require.NoError(t, err)

	assert.Equal(t, "Pakistan won the final.", got)
	assert.Equal(t, 40, fc.maxTokens)
	assert.Contains(t, fc.prompt, "in Urdu")
	assert.Contains(t, fc.prompt, "10 to 40 tokens")
	assert.True(t, strings.HasSuffix(fc.prompt, cricketText))
	assert.Equal(t, []bool{true}, rec.compliance)
	assert.Zero(t, rec.exceeded)
}

func TestModel_TruncatesOverBudgetReply(t *testing.T) {
	fc := &fakeCompleter{reply: "one two six ten red big"}
	rec := &recordingMetrics{}
	b := budget.NewHeuristic(4)
	m := NewModel(fc, b, "").WithMetrics(rec)

	got, err := m.Summarize(context.Background(), cricketText, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, "one two six", got)
	assert.LessOrEqual(t, b.EstimateTokens(got), 3)
	assert.Equal(t, 1, rec.exceeded)
	assert.Equal(t, []bool{false}, rec.compliance)
	assert.Contains(t, fc.prompt, "in English")
}

func TestModel_Errors(t *testing.T) {
	m := NewModel(&fakeCompleter{err: errors.New("api down")}, budget.NewHeuristic(4), "English").
		WithMetrics(&recordingMetrics{})

	_, err := m.Summarize(context.Background(), cricketText, 40, 10)
	assert.ErrorContains(t, err, "api down")

	_, err = m.Summarize(context.Background(), " \n ", 40, 10)
	assert.ErrorIs(t, err, ErrNothingToSummarize)
}

/* ───────── Extractive ───────── */

func TestExtractive_PicksTopSentences(t *testing.T) {
	tests := []struct {
		name      string
		newFn     func(budget.Budgeter) *Extractive
		sentences int
		maxLen    int
		want      string
	}{
		{
			name:      "frequency top one",
			newFn:     NewFrequency,
			sentences: 1,
			maxLen:    100,
			want:      "Cricket team wins the cricket final.",
		},
		{
			name:      "frequency top two keep source order",
			newFn:     NewFrequency,
			sentences: 2,
			maxLen:    100,
			want:      "Cricket team wins the cricket final. Cricket fans celebrate the cricket team victory.",
		},
		{
			name:      "tfidf top one",
			newFn:     NewTFIDF,
			sentences: 1,
			maxLen:    100,
			want:      "Cricket fans celebrate the cricket team victory.",
		},
		{
			name:      "sentences over budget are passed over",
			newFn:     NewFrequency,
			sentences: 1,
			maxLen:    9,
			want:      "The weather was mild.",
		},
		{
			name:      "whole text when everything fits",
			newFn:     NewTFIDF,
			sentences: 3,
			maxLen:    100,
			want:      cricketText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.newFn(budget.NewHeuristic(4)).WithSentences(tt.sentences).WithMetrics(&recordingMetrics{})
			got, err := e.Summarize(context.Background(), cricketText, tt.maxLen, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractive_MinLengthExtendsSelection(t *testing.T) {
	e := NewFrequency(budget.NewHeuristic(4)).WithSentences(1).WithMetrics(&recordingMetrics{})

	// The top sentence alone is 10 tokens; asking for 20 pulls in another.
	got, err := e.Summarize(context.Background(), cricketText, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, "Cricket team wins the cricket final. Cricket fans celebrate the cricket team victory.", got)
}

func TestExtractive_TruncatesWhenNothingFits(t *testing.T) {
	rec := &recordingMetrics{}
	b := budget.NewHeuristic(4)
	e := NewFrequency(b).WithMetrics(rec)

	got, err := e.Summarize(context.Background(), cricketText, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cricket team", got)
	assert.LessOrEqual(t, b.EstimateTokens(got), 3)
	assert.Equal(t, 1, rec.exceeded)
}

func TestExtractive_Urdu(t *testing.T) {
	input := "پاکستان کرکٹ ٹیم نے میچ جیت لیا۔ موسم خوشگوار تھا۔ کرکٹ کے شائقین نے ٹیم کی جیت کا جشن منایا۔"
	e := NewTFIDF(budget.NewHeuristic(4)).WithSentences(1).WithMetrics(&recordingMetrics{})

	got, err := e.Summarize(context.Background(), input, 100, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Contains(t, input, got)
	assert.NotEqual(t, "موسم خوشگوار تھا۔", got)
}

func TestExtractive_Empty(t *testing.T) {
	e := NewTFIDF(budget.NewHeuristic(4)).WithMetrics(&recordingMetrics{})
	_, err := e.Summarize(context.Background(), "   ", 10, 0)
	assert.ErrorIs(t, err, ErrNothingToSummarize)
}

func TestExtractive_Deterministic(t *testing.T) {
	e := NewTFIDF(budget.NewHeuristic(4)).WithSentences(2).WithMetrics(&recordingMetrics{})
	first, err := e.Summarize(context.Background(), cricketText, 30, 0)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.Summarize(context.Background(), cricketText, 30, 0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewPrometheusSummaryMetrics_Singleton(t *testing.T) {
	a := NewPrometheusSummaryMetrics()
	b := NewPrometheusSummaryMetrics()
	assert.Same(t, a, b)
	assert.NotPanics(t, func() {
		a.RecordLength(12)
		a.RecordLimitExceeded()
		a.RecordCompliance(true)
		a.RecordDuration(time.Millisecond)
	})
}
