package digest

import (
	"fmt"

	"docdigest/internal/domain/entity"
)

// Defaults for Config.
const (
	DefaultClassificationTokenLimit = 500
	DefaultSummaryMaxTokens         = 120
	DefaultSummaryMinTokens         = 25
	DefaultChunkTokenLimit          = 768
	DefaultMinViableLength          = 10
	DefaultSampleLength             = 100
	DefaultProgressEvery            = 5
)

// Config is the read-only configuration of the digest Service.
type Config struct {
	// ClassificationTokenLimit bounds the document head sent to the classifier.
	ClassificationTokenLimit int
	// SummaryMaxTokens and SummaryMinTokens bound the merged summary.
	SummaryMaxTokens int
	SummaryMinTokens int
	// ChunkTokenLimit is the segmentation budget.
	ChunkTokenLimit int
	// MinChunkTokens skips chunks smaller than this many tokens. 0 disables it.
	MinChunkTokens int
	// SampleLength is the rune length of Record.TextSample.
	SampleLength int
	// ProgressEvery emits a progress notification every N documents. 0 disables it.
	ProgressEvery int
	// Parallelism bounds concurrently processed documents in ProcessAll.
	Parallelism int
	// ChunkParallelism bounds concurrent summarization calls within a document.
	ChunkParallelism int
	LengthPolicy     LengthPolicy
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		ClassificationTokenLimit: DefaultClassificationTokenLimit,
		SummaryMaxTokens:         DefaultSummaryMaxTokens,
		SummaryMinTokens:         DefaultSummaryMinTokens,
		ChunkTokenLimit:          DefaultChunkTokenLimit,
		SampleLength:             DefaultSampleLength,
		ProgressEvery:            DefaultProgressEvery,
		Parallelism:              1,
		ChunkParallelism:         1,
		LengthPolicy:             ProportionalLength{MinViable: DefaultMinViableLength},
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"classification_token_limit", c.ClassificationTokenLimit},
		{"summary_max_tokens", c.SummaryMaxTokens},
		{"chunk_token_limit", c.ChunkTokenLimit},
		{"parallelism", c.Parallelism},
		{"chunk_parallelism", c.ChunkParallelism},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return &entity.ValidationError{Field: p.field, Message: fmt.Sprintf("must be positive, got %d", p.value)}
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"summary_min_tokens", c.SummaryMinTokens},
		{"min_chunk_tokens", c.MinChunkTokens},
		{"sample_length", c.SampleLength},
		{"progress_every", c.ProgressEvery},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			return &entity.ValidationError{Field: p.field, Message: fmt.Sprintf("must not be negative, got %d", p.value)}
		}
	}

	if c.SummaryMinTokens > c.SummaryMaxTokens {
		return &entity.ValidationError{
			Field:   "summary_min_tokens",
			Message: fmt.Sprintf("must not exceed summary_max_tokens (%d > %d)", c.SummaryMinTokens, c.SummaryMaxTokens),
		}
	}
	if c.LengthPolicy == nil {
		return &entity.ValidationError{Field: "length_policy", Message: "is required"}
	}
	return nil
}
