// Package digest implements the per-document classify, segment, summarize and
// merge workflow.
//
// A document moves through EMPTY_CHECK, CLASSIFY, SEGMENT, SUMMARIZE_EACH and
// MERGE in that order. Every failure is absorbed where it happens and turned
// into a fallback value on the record, so Process always returns exactly one
// record and never an error.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docdigest/internal/domain/budget"
	"docdigest/internal/domain/entity"
	"docdigest/internal/domain/segment"
	"docdigest/internal/observability/logging"
	"docdigest/internal/observability/metrics"
	"docdigest/internal/observability/tracing"
	"docdigest/internal/utils/text"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var errEmptyFragment = errors.New("summarizer returned an empty summary")

// Service runs the digest workflow. It holds no mutable state across
// documents and is safe for concurrent use.
type Service struct {
	Classifier Classifier
	Summarizer Summarizer
	Budgeter   budget.Budgeter
	Categories *entity.CategoryTable
	// Progress receives batch progress from ProcessAll. Nil disables it.
	Progress ProgressReporter

	segmenter *segment.Segmenter
	cfg       Config
}

// NewService creates a digest Service after validating cfg.
//
// Example:
//
//	svc, err := digest.NewService(classifier, summarizer, budget.NewHeuristic(0), table, digest.DefaultConfig())
func NewService(
	classifier Classifier,
	summarizer Summarizer,
	budgeter budget.Budgeter,
	categories *entity.CategoryTable,
	cfg Config,
) (*Service, error) {
	if classifier == nil || summarizer == nil {
		return nil, fmt.Errorf("new digest service: classifier and summarizer are required: %w", entity.ErrInvalidInput)
	}
	if budgeter == nil || categories == nil {
		return nil, fmt.Errorf("new digest service: budgeter and category table are required: %w", entity.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new digest service: %w", err)
	}
	return &Service{
		Classifier: classifier,
		Summarizer: summarizer,
		Budgeter:   budgeter,
		Categories: categories,
		segmenter:  segment.New(budgeter),
		cfg:        cfg,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Process runs the full workflow for one document.
func (s *Service) Process(ctx context.Context, doc entity.Document) entity.Record {
	start := time.Now()
	ctx, span := tracing.StartStage(ctx, "process", doc.ID)
	defer span.End()
	logger := logging.FromContext(ctx).With(slog.String("document_id", doc.ID))

	rec := entity.Record{
		ID:         doc.ID,
		TextLength: doc.Length(),
		TextSample: text.Sample(strings.TrimSpace(doc.Text), s.cfg.SampleLength),
	}
	defer func() {
		metrics.RecordDocument(string(rec.Status), rec.Degraded(), time.Since(start))
		span.SetAttributes(
			attribute.String("document.status", string(rec.Status)),
			attribute.Int("document.chunks", rec.ChunkCount),
			attribute.Bool("document.degraded", rec.Degraded()),
		)
	}()

	// EMPTY_CHECK
	if doc.IsBlank() {
		rec.Status = entity.StatusSkipped
		rec.Category = s.Categories.Fallback()
		s.absorb(logger, &rec, entity.Issue{Kind: entity.ErrEmptyInput})
		return rec
	}
	rec.Status = entity.StatusProcessed

	// CLASSIFY
	rec.Category = s.classify(ctx, logger, doc, &rec)

	// SEGMENT
	chunks := s.segment(ctx, doc)
	rec.ChunkCount = len(chunks)

	// SUMMARIZE_EACH
	fragments := s.summarizeEach(ctx, logger, doc.ID, chunks, &rec)

	// MERGE
	rec.Summary = merge(fragments)

	logger.Debug("document processed",
		slog.String("category", rec.Category.Canonical),
		slog.Int("chunks", rec.ChunkCount),
		slog.Int("summarized_chunks", rec.SummarizedChunks),
		slog.Int("issues", len(rec.Issues)),
		slog.Duration("duration", time.Since(start)))
	return rec
}

func (s *Service) classify(ctx context.Context, logger *slog.Logger, doc entity.Document, rec *entity.Record) entity.Category {
	head := s.Budgeter.Truncate(strings.TrimSpace(doc.Text), s.cfg.ClassificationTokenLimit)
	ctx, span := tracing.StartStage(ctx, "classify", doc.ID, attribute.Int("input.tokens", s.Budgeter.EstimateTokens(head)))
	defer span.End()

	var label string
	callStart := time.Now()
	err := guard(func() (err error) {
		label, err = s.Classifier.Classify(ctx, head)
		return err
	})
	metrics.RecordCapabilityCall("classify", err == nil, time.Since(callStart))
	if err != nil {
		tracing.RecordError(span, err)
		s.absorb(logger, rec, entity.Issue{Kind: entity.ErrClassificationFailure, Detail: err.Error()})
		return s.Categories.Fallback()
	}

	category, ok := s.Categories.Resolve(label)
	if !ok {
		s.absorb(logger, rec, entity.Issue{Kind: entity.ErrUnmappableLabel, Detail: label})
	}
	span.SetAttributes(attribute.String("category", category.Canonical))
	metrics.RecordCategory(category.Canonical)
	return category
}

func (s *Service) segment(ctx context.Context, doc entity.Document) []entity.Chunk {
	_, span := tracing.StartStage(ctx, "segment", doc.ID)
	defer span.End()

	var chunks []entity.Chunk
	if s.Budgeter.EstimateTokens(doc.Text) <= s.cfg.ChunkTokenLimit {
		chunks = s.segmenter.Whole(doc.Text)
	} else {
		chunks = s.segmenter.Segment(doc.Text, s.cfg.ChunkTokenLimit)
	}

	oversized := 0
	for _, c := range chunks {
		if c.Oversized {
			oversized++
		}
	}
	metrics.RecordChunks(len(chunks), oversized)
	span.SetAttributes(attribute.Int("chunks", len(chunks)), attribute.Int("chunks.oversized", oversized))
	return chunks
}

// chunkResult is the outcome of one chunk. Exactly one of fragment, issue
// or skipped is set.
type chunkResult struct {
	fragment string
	issue    *entity.Issue
	skipped  bool
}

func (s *Service) summarizeEach(ctx context.Context, logger *slog.Logger, docID string, chunks []entity.Chunk, rec *entity.Record) []string {
	eligible := 0
	for _, c := range chunks {
		if c.Tokens >= s.cfg.MinChunkTokens {
			eligible++
		}
	}
	lengths, viable := s.cfg.LengthPolicy.PerChunk(s.cfg.SummaryMaxTokens, s.cfg.SummaryMinTokens, eligible)
	if !viable && eligible > 0 {
		logger.Info("per-chunk summary length below viable minimum, skipping chunks",
			slog.Int("chunks", eligible),
			slog.Int("summary_max_tokens", s.cfg.SummaryMaxTokens))
	}

	results := make([]chunkResult, len(chunks))
	var g errgroup.Group
	g.SetLimit(s.cfg.ChunkParallelism)
	for i, c := range chunks {
		if !viable || c.Tokens < s.cfg.MinChunkTokens {
			results[i] = chunkResult{skipped: true}
			continue
		}
		g.Go(func() error {
			results[i] = s.summarizeChunk(ctx, docID, c, lengths)
			return nil
		})
	}
	_ = g.Wait()

	fragments := make([]string, 0, len(chunks))
	for _, r := range results {
		switch {
		case r.skipped:
			rec.SkippedChunks++
			metrics.RecordChunkOutcome(metrics.OutcomeSkipped)
		case r.issue != nil:
			s.absorb(logger, rec, *r.issue)
			metrics.RecordChunkOutcome(metrics.OutcomeFailed)
		default:
			rec.SummarizedChunks++
			fragments = append(fragments, r.fragment)
			metrics.RecordChunkOutcome(metrics.OutcomeSummarized)
		}
	}
	return fragments
}

func (s *Service) summarizeChunk(ctx context.Context, docID string, c entity.Chunk, lengths LengthBudget) chunkResult {
	ctx, span := tracing.StartStage(ctx, "summarize", docID,
		attribute.Int("chunk.index", c.Index),
		attribute.Int("chunk.tokens", c.Tokens),
		attribute.Bool("chunk.oversized", c.Oversized))
	defer span.End()

	input := c.Text
	if c.Oversized {
		input = s.Budgeter.Truncate(input, s.cfg.ChunkTokenLimit)
	}

	var summary string
	callStart := time.Now()
	err := guard(func() (err error) {
		summary, err = s.Summarizer.Summarize(ctx, input, lengths.Max, lengths.Min)
		return err
	})
	if err == nil && strings.TrimSpace(summary) == "" {
		err = errEmptyFragment
	}
	metrics.RecordCapabilityCall("summarize", err == nil, time.Since(callStart))
	if err != nil {
		tracing.RecordError(span, err)
		return chunkResult{issue: &entity.Issue{Kind: entity.ErrSummarizationFailure, Chunk: c.Index, Detail: err.Error()}}
	}
	return chunkResult{fragment: strings.TrimSpace(summary)}
}

// absorb records a failure on the record instead of propagating it.
func (s *Service) absorb(logger *slog.Logger, rec *entity.Record, issue entity.Issue) {
	rec.Issues = append(rec.Issues, issue)
	metrics.RecordFailure(FailureLabel(issue.Kind))

	attrs := []any{slog.String("kind", FailureLabel(issue.Kind))}
	if issue.Chunk > 0 {
		attrs = append(attrs, slog.Int("chunk", issue.Chunk))
	}
	if issue.Detail != "" {
		attrs = append(attrs, slog.String("detail", issue.Detail))
	}
	if errors.Is(issue.Kind, entity.ErrEmptyInput) {
		logger.Info("skipping empty document", attrs...)
		return
	}
	logger.Warn("pipeline failure absorbed, using fallback", attrs...)
}

// FailureLabel returns the short metric label of a failure kind.
func FailureLabel(kind error) string {
	switch {
	case errors.Is(kind, entity.ErrClassificationFailure):
		return "classification"
	case errors.Is(kind, entity.ErrSummarizationFailure):
		return "summarization"
	case errors.Is(kind, entity.ErrEmptyInput):
		return "empty_input"
	case errors.Is(kind, entity.ErrUnmappableLabel):
		return "unmappable_label"
	default:
		return "unknown"
	}
}

// merge joins fragments in chunk order. No fragments yields the explicit
// "no summary available" marker.
func merge(fragments []string) string {
	if len(fragments) == 0 {
		return entity.NoSummaryAvailable
	}
	return strings.Join(fragments, " ")
}
