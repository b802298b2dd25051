// Package config loads the docdigest configuration from the environment and
// from YAML files.
package config

import (
	"fmt"
	"strings"

	"docdigest/internal/domain/budget"
	pkgconfig "docdigest/internal/pkg/config"
	"docdigest/internal/usecase/digest"
)

// Capability backends.
const (
	BackendModel       = "model"
	BackendStatistical = "statistical"
	BackendExtractive  = "extractive"
)

// Model providers for the model backend.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// Tokenizers.
const (
	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Length policies.
const (
	LengthProportional = "proportional"
	LengthFixed        = "fixed"
)

// DigestConfigMetrics tracks fallbacks applied while loading DigestConfig.
var DigestConfigMetrics = pkgconfig.NewConfigMetrics("digest")

// DigestConfig holds pipeline, backend and tokenizer settings.
type DigestConfig struct {
	ClassificationTokenLimit int
	SummaryMaxTokens         int
	SummaryMinTokens         int
	ChunkTokenLimit          int
	MinChunkTokens           int
	MinViableLength          int
	SampleLength             int
	ProgressEvery            int
	Parallelism              int
	ChunkParallelism         int
	LengthPolicy             string

	// Backend selects the classify/summarize implementation.
	Backend string
	// ModelProvider selects the LLM client when Backend is "model".
	ModelProvider string
	// SummaryLanguage is the language model summaries are written in.
	SummaryLanguage string

	Tokenizer         string
	TokenizerEncoding string
	RunesPerToken     int

	// CategoriesFile is an optional YAML category table.
	CategoriesFile string
	// TrainingFile is an optional YAML file of labelled examples for the statistical backend.
	TrainingFile string

	// Warnings lists fallbacks applied during loading.
	Warnings []string
}

// LoadDigestConfig reads DIGEST_* variables. Invalid values fall back to
// defaults with a warning; the combined result is then validated.
func LoadDigestConfig() (*DigestConfig, error) {
	l := pkgconfig.NewLoader(DigestConfigMetrics)
	pos, nonNeg := pkgconfig.ValidatePositiveInt, pkgconfig.ValidateNonNegativeInt

	cfg := &DigestConfig{
		ClassificationTokenLimit: l.Int("DIGEST_CLASSIFICATION_TOKEN_LIMIT", digest.DefaultClassificationTokenLimit, pos),
		SummaryMaxTokens:         l.Int("DIGEST_SUMMARY_MAX_TOKENS", digest.DefaultSummaryMaxTokens, pos),
		SummaryMinTokens:         l.Int("DIGEST_SUMMARY_MIN_TOKENS", digest.DefaultSummaryMinTokens, nonNeg),
		ChunkTokenLimit:          l.Int("DIGEST_CHUNK_TOKEN_LIMIT", digest.DefaultChunkTokenLimit, pos),
		MinChunkTokens:           l.Int("DIGEST_MIN_CHUNK_TOKENS", 0, nonNeg),
		MinViableLength:          l.Int("DIGEST_MIN_VIABLE_LENGTH", digest.DefaultMinViableLength, nonNeg),
		SampleLength:             l.Int("DIGEST_SAMPLE_LENGTH", digest.DefaultSampleLength, nonNeg),
		ProgressEvery:            l.Int("DIGEST_PROGRESS_EVERY", digest.DefaultProgressEvery, nonNeg),
		Parallelism:              l.Int("DIGEST_PARALLELISM", 1, func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 64) }),
		ChunkParallelism:         l.Int("DIGEST_CHUNK_PARALLELISM", 1, func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 32) }),
		LengthPolicy:             strings.ToLower(l.String("DIGEST_LENGTH_POLICY", LengthProportional, pkgconfig.ValidateOneOf(LengthProportional, LengthFixed))),
		Backend:                  strings.ToLower(l.String("DIGEST_BACKEND", BackendModel, pkgconfig.ValidateOneOf(BackendModel, BackendStatistical, BackendExtractive))),
		ModelProvider:            strings.ToLower(l.String("DIGEST_MODEL_PROVIDER", ProviderClaude, pkgconfig.ValidateOneOf(ProviderClaude, ProviderOpenAI))),
		SummaryLanguage:          l.String("DIGEST_SUMMARY_LANGUAGE", "English", nil),
		Tokenizer:                strings.ToLower(l.String("DIGEST_TOKENIZER", TokenizerHeuristic, pkgconfig.ValidateOneOf(TokenizerHeuristic, TokenizerTiktoken))),
		TokenizerEncoding:        l.String("DIGEST_TOKENIZER_ENCODING", budget.DefaultEncoding, nil),
		RunesPerToken:            l.Int("DIGEST_RUNES_PER_TOKEN", budget.DefaultRunesPerToken, pos),
		CategoriesFile:           pkgconfig.LoadEnvString("DIGEST_CATEGORIES_FILE", ""),
		TrainingFile:             pkgconfig.LoadEnvString("DIGEST_TRAINING_FILE", ""),
	}
	l.Finish()
	cfg.Warnings = l.Warnings()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid digest configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints and delegates pipeline settings
// to digest.Config.Validate.
func (c *DigestConfig) Validate() error {
	if err := c.PipelineConfig().Validate(); err != nil {
		return err
	}
	switch c.LengthPolicy {
	case LengthProportional, LengthFixed:
	default:
		return fmt.Errorf("DIGEST_LENGTH_POLICY %q is not supported", c.LengthPolicy)
	}
	switch c.Backend {
	case BackendModel, BackendStatistical, BackendExtractive:
	default:
		return fmt.Errorf("DIGEST_BACKEND %q is not supported", c.Backend)
	}
	switch c.Tokenizer {
	case TokenizerHeuristic, TokenizerTiktoken:
	default:
		return fmt.Errorf("DIGEST_TOKENIZER %q is not supported", c.Tokenizer)
	}
	return nil
}

// PipelineConfig converts the settings into a digest.Config.
func (c *DigestConfig) PipelineConfig() digest.Config {
	var policy digest.LengthPolicy = digest.ProportionalLength{MinViable: c.MinViableLength}
	if c.LengthPolicy == LengthFixed {
		policy = digest.FixedLength{MinViable: c.MinViableLength}
	}
	return digest.Config{
		ClassificationTokenLimit: c.ClassificationTokenLimit,
		SummaryMaxTokens:         c.SummaryMaxTokens,
		SummaryMinTokens:         c.SummaryMinTokens,
		ChunkTokenLimit:          c.ChunkTokenLimit,
		MinChunkTokens:           c.MinChunkTokens,
		SampleLength:             c.SampleLength,
		ProgressEvery:            c.ProgressEvery,
		Parallelism:              c.Parallelism,
		ChunkParallelism:         c.ChunkParallelism,
		LengthPolicy:             policy,
	}
}

// NewBudgeter builds the configured token budgeter.
func (c *DigestConfig) NewBudgeter() (budget.Budgeter, error) {
	if c.Tokenizer == TokenizerTiktoken {
		tk, err := budget.NewTiktoken(c.TokenizerEncoding)
		if err != nil {
			return nil, fmt.Errorf("create tiktoken budgeter: %w", err)
		}
		return tk, nil
	}
	return budget.NewHeuristic(c.RunesPerToken), nil
}
