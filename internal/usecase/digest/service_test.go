package digest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"docdigest/internal/domain/budget"
	"docdigest/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

/* ───────── Test Doubles ───────── */

type stubClassifier struct {
	mu     sync.Mutex
	label  string
	err    error
	panics bool
	inputs []string
}

func (c *stubClassifier) Classify(_ context.Context, text string) (string, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, text)
	c.mu.Unlock()
	if c.panics {
		panic("classifier exploded")
	}
	return c.label, c.err
}

func (c *stubClassifier) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inputs)
}

type summarizeCall struct {
	text     string
	max, min int
}

// stubSummarizer echoes "S(<text>)" unless fail matches the chunk text.
type stubSummarizer struct {
	mu     sync.Mutex
	fail   func(text string) error
	reply  func(text string) string
	delay  func(text string) time.Duration
	called []summarizeCall
}

func (s *stubSummarizer) Summarize(_ context.Context, text string, maxLen, minLen int) (string, error) {
	s.mu.Lock()
	s.called = append(s.called, summarizeCall{text: text, max: maxLen, min: minLen})
	s.mu.Unlock()
	if s.delay != nil {
		time.Sleep(s.delay(text))
	}
	if s.fail != nil {
		if err := s.fail(text); err != nil {
			return "", err
		}
	}
	if s.reply != nil {
		return s.reply(text), nil
	}
	return "S(" + text + ")", nil
}

func (s *stubSummarizer) calls() []summarizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]summarizeCall(nil), s.called...)
}

func testCategories(t *testing.T) *entity.CategoryTable {
	t.Helper()
	table, err := entity.NewCategoryTable([]entity.CategoryEntry{
		{Category: entity.Category{Source: "کھیل", Canonical: "sports"}, Aliases: []string{"sport"}},
		{Category: entity.Category{Source: "سیاست", Canonical: "politics"}, Aliases: []string{"polit"}},
	}, entity.Category{Source: "دیگر", Canonical: "other"})
	require.NoError(t, err)
	return table
}

func newTestService(t *testing.T, c Classifier, s Summarizer, mutate func(*Config)) *Service {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewService(c, s, budget.NewHeuristic(4), testCategories(t), cfg)
	require.NoError(t, err)
	return svc
}

/* ───────── End-to-End Scenarios ───────── */

func TestProcess_SingleChunkDocument(t *testing.T) {
	cls := &stubClassifier{label: "sports"}
	sum := &stubSummarizer{}
	svc := newTestService(t, cls, sum, nil)
	doc := entity.NewDocument("a.txt", "Sentence one. Sentence two. Sentence three.")

	rec := svc.Process(context.Background(), doc)

	calls := sum.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, doc.Text, calls[0].text)
	assert.Equal(t, DefaultSummaryMaxTokens, calls[0].max)
	assert.Equal(t, DefaultSummaryMinTokens, calls[0].min)

	assert.Equal(t, entity.StatusProcessed, rec.Status)
	assert.Equal(t, 1, rec.ChunkCount)
	assert.Equal(t, 1, rec.SummarizedChunks)
	assert.Equal(t, "S("+doc.Text+")", rec.Summary)
	assert.Equal(t, entity.Category{Source: "کھیل", Canonical: "sports"}, rec.Category)
	assert.Equal(t, doc.Length(), rec.TextLength)
	assert.Equal(t, doc.Text, rec.TextSample)
	assert.Empty(t, rec.Issues)
	assert.False(t, rec.Degraded())
}

func TestProcess_OnlyMiddleParagraphSegmentedBySentence(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "politics"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 8
	})
	doc := entity.NewDocument("b.txt",
		"Short intro.\n\nAlpha beta gamma. Delta epsilon zeta. Eta theta iota.\n\nClosing words.")

	rec := svc.Process(context.Background(), doc)

	want := []string{
		"Short intro.",
		"Alpha beta gamma.",
		"Delta epsilon zeta.",
		"Eta theta iota.",
		"Closing words.",
	}
	calls := sum.calls()
	require.Len(t, calls, len(want))
	for i, w := range want {
		assert.Equal(t, w, calls[i].text)
		assert.Equal(t, DefaultSummaryMaxTokens/len(want), calls[i].max)
		assert.Equal(t, DefaultSummaryMinTokens/len(want), calls[i].min)
	}

	assert.Equal(t, len(want), rec.ChunkCount)
	assert.Equal(t, "S(Short intro.) S(Alpha beta gamma.) S(Delta epsilon zeta.) S(Eta theta iota.) S(Closing words.)", rec.Summary)
}

// A document just over the chunk limit made of many short paragraphs packs
// them into a few chunks, so every chunk keeps a viable summary length.
func TestProcess_ManyShortParagraphs(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, nil)

	para := strings.TrimSpace(strings.Repeat("cricket ", 25)) + "."
	paras := make([]string, 20)
	for i := range paras {
		paras[i] = para
	}
	doc := entity.NewDocument("long.txt", strings.Join(paras, "\n\n"))
	require.Greater(t, svc.Budgeter.EstimateTokens(doc.Text), DefaultChunkTokenLimit)

	rec := svc.Process(context.Background(), doc)

	assert.Equal(t, 2, rec.ChunkCount)
	assert.Equal(t, 2, rec.SummarizedChunks)
	assert.Equal(t, 0, rec.SkippedChunks)
	assert.NotEqual(t, entity.NoSummaryAvailable, rec.Summary)
	calls := sum.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, DefaultSummaryMaxTokens/2, calls[0].max)
	assert.Equal(t, strings.Join(paras[:15], "\n\n"), calls[0].text)
	assert.Equal(t, strings.Join(paras[15:], "\n\n"), calls[1].text)
}

func TestProcess_EmptyDocumentIsSkipped(t *testing.T) {
	for _, body := range []string{"", "   \n\t  "} {
		cls := &stubClassifier{label: "sports"}
		sum := &stubSummarizer{}
		svc := newTestService(t, cls, sum, nil)

		rec := svc.Process(context.Background(), entity.NewDocument("empty.txt", body))

		assert.Equal(t, entity.StatusSkipped, rec.Status)
		assert.Equal(t, 0, cls.calls())
		assert.Empty(t, sum.calls())
		assert.True(t, rec.HasIssue(entity.ErrEmptyInput))
		assert.Equal(t, "", rec.Summary)
		assert.Equal(t, entity.Category{Source: "دیگر", Canonical: "other"}, rec.Category)
	}
}

func TestProcess_FailedChunkIsOmitted(t *testing.T) {
	sum := &stubSummarizer{fail: func(text string) error {
		if strings.HasPrefix(text, "Second") {
			return errors.New("model unavailable")
		}
		return nil
	}}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 5
	})

	rec := svc.Process(context.Background(), entity.NewDocument("d.txt", "First para.\n\nSecond para.\n\nThird para."))

	assert.Equal(t, 3, rec.ChunkCount)
	assert.Equal(t, 2, rec.SummarizedChunks)
	assert.Equal(t, "S(First para.) S(Third para.)", rec.Summary)
	require.Len(t, rec.Issues, 1)
	assert.ErrorIs(t, rec.Issues[0].Kind, entity.ErrSummarizationFailure)
	assert.Equal(t, 2, rec.Issues[0].Chunk)
	assert.Contains(t, rec.Issues[0].Detail, "model unavailable")
	assert.True(t, rec.Degraded())
}

/* ───────── Classification Fallbacks ───────── */

func TestProcess_Classification(t *testing.T) {
	tests := []struct {
		name      string
		cls       *stubClassifier
		wantCanon string
		wantIssue error
	}{
		{name: "canonical label", cls: &stubClassifier{label: "Politics"}, wantCanon: "politics"},
		{name: "source label", cls: &stubClassifier{label: "کھیل"}, wantCanon: "sports"},
		{name: "alias", cls: &stubClassifier{label: "sport & games"}, wantCanon: "sports"},
		{name: "explicit other", cls: &stubClassifier{label: "other"}, wantCanon: "other"},
		{name: "capability error", cls: &stubClassifier{err: errors.New("timeout")}, wantCanon: "other", wantIssue: entity.ErrClassificationFailure},
		{name: "deadline exceeded", cls: &stubClassifier{err: context.DeadlineExceeded}, wantCanon: "other", wantIssue: entity.ErrClassificationFailure},
		{name: "panic", cls: &stubClassifier{panics: true}, wantCanon: "other", wantIssue: entity.ErrClassificationFailure},
		{name: "unmappable label", cls: &stubClassifier{label: "weather"}, wantCanon: "other", wantIssue: entity.ErrUnmappableLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := &stubSummarizer{}
			svc := newTestService(t, tt.cls, sum, nil)

			var rec entity.Record
			require.NotPanics(t, func() {
				rec = svc.Process(context.Background(), entity.NewDocument("c.txt", "A well formed document."))
			})

			assert.Equal(t, entity.StatusProcessed, rec.Status)
			assert.Equal(t, tt.wantCanon, rec.Category.Canonical)
			assert.Len(t, sum.calls(), 1, "summarization continues after classification fallback")
			if tt.wantIssue == nil {
				assert.Empty(t, rec.Issues)
			} else {
				require.Len(t, rec.Issues, 1)
				assert.ErrorIs(t, rec.Issues[0].Kind, tt.wantIssue)
			}
		})
	}
}

func TestProcess_ClassifierReceivesTruncatedHead(t *testing.T) {
	cls := &stubClassifier{label: "sports"}
	svc := newTestService(t, cls, &stubSummarizer{}, func(c *Config) {
		c.ClassificationTokenLimit = 3
	})
	body := "  one two three four five six seven."

	svc.Process(context.Background(), entity.NewDocument("h.txt", body))

	require.Equal(t, 1, cls.calls())
	head := cls.inputs[0]
	b := budget.NewHeuristic(4)
	assert.LessOrEqual(t, b.EstimateTokens(head), 3)
	assert.Equal(t, b.Truncate(strings.TrimSpace(body), 3), head)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), head))
}

/* ───────── Summarization Edge Cases ───────── */

func TestProcess_NoSurvivingFragments(t *testing.T) {
	tests := []struct {
		name string
		sum  *stubSummarizer
	}{
		{name: "all chunks fail", sum: &stubSummarizer{fail: func(string) error { return errors.New("boom") }}},
		{name: "blank fragments", sum: &stubSummarizer{reply: func(string) string { return "  \n" }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &stubClassifier{label: "sports"}, tt.sum, func(c *Config) {
				c.ChunkTokenLimit = 5
			})

			rec := svc.Process(context.Background(), entity.NewDocument("f.txt", "First para.\n\nSecond para."))

			assert.Equal(t, entity.NoSummaryAvailable, rec.Summary)
			assert.Equal(t, 0, rec.SummarizedChunks)
			assert.Len(t, rec.Issues, 2)
			assert.True(t, rec.Degraded())
		})
	}
}

func TestProcess_SummarizerPanicIsContained(t *testing.T) {
	sum := SummarizerFunc(func(context.Context, string, int, int) (string, error) {
		panic("nil model")
	})
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, nil)

	var rec entity.Record
	require.NotPanics(t, func() {
		rec = svc.Process(context.Background(), entity.NewDocument("p.txt", "Some text."))
	})

	assert.Equal(t, entity.NoSummaryAvailable, rec.Summary)
	assert.True(t, rec.HasIssue(entity.ErrSummarizationFailure))
}

func TestProcess_ChunksBelowViableLengthAreSkipped(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 5
		c.SummaryMaxTokens = 20
		c.SummaryMinTokens = 5
		c.LengthPolicy = ProportionalLength{MinViable: 10}
	})

	rec := svc.Process(context.Background(), entity.NewDocument("v.txt", "First para.\n\nSecond para.\n\nThird para."))

	assert.Empty(t, sum.calls())
	assert.Equal(t, 3, rec.ChunkCount)
	assert.Equal(t, 3, rec.SkippedChunks)
	assert.Equal(t, entity.NoSummaryAvailable, rec.Summary)
}

func TestProcess_FixedLengthPolicy(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 5
		c.LengthPolicy = FixedLength{MinViable: 10}
	})

	svc.Process(context.Background(), entity.NewDocument("x.txt", "First para.\n\nSecond para.\n\nThird para."))

	calls := sum.calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, DefaultSummaryMaxTokens, c.max)
		assert.Equal(t, DefaultSummaryMinTokens, c.min)
	}
}

func TestProcess_MinChunkTokens(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 7
		c.MinChunkTokens = 3
	})

	rec := svc.Process(context.Background(), entity.NewDocument("m.txt", "Ok.\n\nLonger paragraph here."))

	calls := sum.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Longer paragraph here.", calls[0].text)
	assert.Equal(t, DefaultSummaryMaxTokens, calls[0].max, "skipped chunks do not share the budget")
	assert.Equal(t, DefaultSummaryMinTokens, calls[0].min)
	assert.Equal(t, 1, rec.SkippedChunks)
	assert.Equal(t, "S(Longer paragraph here.)", rec.Summary)
}

func TestProcess_OversizedChunkIsTruncatedBeforeSummarizing(t *testing.T) {
	sum := &stubSummarizer{}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 3
	})

	rec := svc.Process(context.Background(), entity.NewDocument("o.txt", "a supercalifragilisticexpialidocious b"))

	calls := sum.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "supercalifra", calls[1].text)
	assert.Equal(t, 3, rec.ChunkCount)
}

func TestProcess_ChunkParallelismPreservesOrder(t *testing.T) {
	sum := &stubSummarizer{delay: func(text string) time.Duration {
		if strings.HasPrefix(text, "First") {
			return 30 * time.Millisecond
		}
		return 0
	}}
	svc := newTestService(t, &stubClassifier{label: "sports"}, sum, func(c *Config) {
		c.ChunkTokenLimit = 5
		c.ChunkParallelism = 3
	})

	rec := svc.Process(context.Background(), entity.NewDocument("o.txt", "First para.\n\nSecond para.\n\nThird para."))

	assert.Equal(t, "S(First para.) S(Second para.) S(Third para.)", rec.Summary)
}

func TestProcess_Deterministic(t *testing.T) {
	svc := newTestService(t, &stubClassifier{label: "sports"}, &stubSummarizer{}, func(c *Config) {
		c.ChunkTokenLimit = 5
	})
	doc := entity.NewDocument("d.txt", "First para.\n\nSecond para.\n\nThird para.")

	assert.Equal(t, svc.Process(context.Background(), doc), svc.Process(context.Background(), doc))
}

func TestProcess_TextSample(t *testing.T) {
	svc := newTestService(t, &stubClassifier{label: "sports"}, &stubSummarizer{}, func(c *Config) {
		c.SampleLength = 5
	})

	rec := svc.Process(context.Background(), entity.NewDocument("s.txt", "  abcdefgh"))

	assert.Equal(t, "abcde...", rec.TextSample)
	assert.Equal(t, 10, rec.TextLength)
}

/* ───────── Tracing ───────── */

func TestProcess_EmitsStageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	svc := newTestService(t, &stubClassifier{label: "sports"}, &stubSummarizer{}, nil)
	svc.Process(context.Background(), entity.NewDocument("t.txt", "Sentence one."))

	names := map[string]int{}
	for _, s := range exporter.GetSpans() {
		names[s.Name]++
	}
	assert.Equal(t, map[string]int{
		"digest.process":   1,
		"digest.classify":  1,
		"digest.segment":   1,
		"digest.summarize": 1,
	}, names)
}

/* ───────── Construction ───────── */

func TestNewService_Errors(t *testing.T) {
	table := testCategories(t)
	b := budget.NewHeuristic(4)
	cls := &stubClassifier{}
	sum := &stubSummarizer{}

	_, err := NewService(nil, sum, b, table, DefaultConfig())
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	_, err = NewService(cls, sum, nil, table, DefaultConfig())
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	bad := DefaultConfig()
	bad.ChunkTokenLimit = 0
	_, err = NewService(cls, sum, b, table, bad)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	svc, err := NewService(cls, sum, b, table, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), svc.Config())
}

func TestFailureLabel(t *testing.T) {
	assert.Equal(t, "classification", FailureLabel(entity.ErrClassificationFailure))
	assert.Equal(t, "summarization", FailureLabel(entity.ErrSummarizationFailure))
	assert.Equal(t, "empty_input", FailureLabel(entity.ErrEmptyInput))
	assert.Equal(t, "unmappable_label", FailureLabel(entity.ErrUnmappableLabel))
	assert.Equal(t, "unknown", FailureLabel(errors.New("x")))
}
