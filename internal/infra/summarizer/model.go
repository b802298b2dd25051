// Package summarizer implements the summarization capability: a language
// model backed summarizer and two local extractive ones (word frequency and
// TF-IDF). All of them honour a token budget measured by a budget.Budgeter.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docdigest/internal/domain/budget"
	"docdigest/internal/infra/llm"
)

// ErrNothingToSummarize is returned for text without any sentence.
var ErrNothingToSummarize = errors.New("nothing to summarize")

// Model summarizes with a language model.
type Model struct {
	completer       llm.Completer
	budgeter        budget.Budgeter
	language        string
	metricsRecorder SummaryMetricsRecorder
}

// NewModel returns a Model writing summaries in language (e.g. "English", "Urdu").
func NewModel(completer llm.Completer, budgeter budget.Budgeter, language string) *Model {
	if language == "" {
		language = "English"
	}
	return &Model{
		completer:       completer,
		budgeter:        budgeter,
		language:        language,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// WithMetrics replaces the metrics recorder.
func (m *Model) WithMetrics(r SummaryMetricsRecorder) *Model {
	m.metricsRecorder = r
	return m
}

func (m *Model) buildPrompt(text string, maxLen, minLen int) string {
	return fmt.Sprintf("Summarize the following text in %s in %d to %d tokens. "+
		"Reply with the summary only, without any preamble.\n\n%s",
		m.language, minLen, maxLen, text)
}

// Summarize implements the digest summarizer contract. A reply longer than
// maxLen tokens is cut to the budget.
func (m *Model) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNothingToSummarize
	}

	start := time.Now()
	out, err := m.completer.Complete(ctx, m.buildPrompt(text, maxLen, minLen), maxLen)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	summary := strings.TrimSpace(out)

	tokens := m.budgeter.EstimateTokens(summary)
	withinLimit := tokens <= maxLen
	if !withinLimit {
		slog.WarnContext(ctx, "summary exceeds token budget",
			slog.String("provider", m.completer.Provider()),
			slog.Int("summary_tokens", tokens),
			slog.Int("limit", maxLen),
			slog.Int("excess", tokens-maxLen))
		summary = strings.TrimSpace(m.budgeter.Truncate(summary, maxLen))
		tokens = m.budgeter.EstimateTokens(summary)
		m.metricsRecorder.RecordLimitExceeded()
	}

	m.metricsRecorder.RecordLength(tokens)
	m.metricsRecorder.RecordCompliance(withinLimit)
	m.metricsRecorder.RecordDuration(time.Since(start))
	return summary, nil
}
