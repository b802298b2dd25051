// Package backend assembles the digest service from configuration: the
// category table, the token budgeter and the classify/summarize backend.
package backend

import (
	"fmt"
	"log/slog"

	"docdigest/internal/config"
	"docdigest/internal/domain/budget"
	"docdigest/internal/domain/entity"
	"docdigest/internal/infra/classifier"
	"docdigest/internal/infra/llm"
	"docdigest/internal/infra/summarizer"
	"docdigest/internal/observability/logging"
	"docdigest/internal/usecase/digest"
)

// Capabilities is a classifier and summarizer pair.
type Capabilities struct {
	Name       string
	Classifier digest.Classifier
	Summarizer digest.Summarizer
}

// NewCapabilities builds the backend selected by cfg.Backend:
//   - "model": an LLM completer (Claude or OpenAI) behind both capabilities
//   - "statistical": naive Bayes classifier with the TF-IDF extractive summarizer
//   - "extractive": naive Bayes classifier with the word-frequency summarizer
func NewCapabilities(logger *slog.Logger, cfg *config.DigestConfig, table *entity.CategoryTable, budgeter budget.Budgeter) (*Capabilities, error) {
	switch cfg.Backend {
	case config.BackendModel:
		completer, err := newCompleter(logger, cfg.ModelProvider)
		if err != nil {
			return nil, err
		}
		logger.Info("using language model backend",
			slog.String("provider", completer.Provider()),
			slog.String("summary_language", cfg.SummaryLanguage))
		return &Capabilities{
			Name:       config.BackendModel + "/" + completer.Provider(),
			Classifier: classifier.NewModel(completer, table),
			Summarizer: summarizer.NewModel(completer, budgeter, cfg.SummaryLanguage),
		}, nil

	case config.BackendStatistical, config.BackendExtractive:
		bayes, err := classifier.LoadBayes(cfg.TrainingFile)
		if err != nil {
			return nil, err
		}
		sum := summarizer.NewTFIDF(budgeter)
		if cfg.Backend == config.BackendExtractive {
			sum = summarizer.NewFrequency(budgeter)
		}
		logger.Info("using local backend",
			slog.String("backend", cfg.Backend),
			slog.Any("labels", bayes.Labels()))
		return &Capabilities{
			Name:       cfg.Backend,
			Classifier: bayes,
			Summarizer: sum,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func newCompleter(logger *slog.Logger, provider string) (llm.Completer, error) {
	var (
		llmCfg   llm.Config
		warnings []string
		build    func(llm.Config) (llm.Completer, error)
	)
	switch provider {
	case config.ProviderClaude:
		llmCfg, warnings = llm.LoadClaudeConfig()
		build = func(c llm.Config) (llm.Completer, error) { return llm.NewClaude(c) }
	case config.ProviderOpenAI:
		llmCfg, warnings = llm.LoadOpenAIConfig()
		build = func(c llm.Config) (llm.Completer, error) { return llm.NewOpenAI(c) }
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}
	logging.LogFallbacks(logger, warnings)

	completer, err := build(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}
	return completer, nil
}

// NewService loads the category table, budgeter and backend named by cfg and
// returns a ready digest service.
func NewService(logger *slog.Logger, cfg *config.DigestConfig) (*digest.Service, *Capabilities, error) {
	table, err := config.LoadCategoryTable(cfg.CategoriesFile)
	if err != nil {
		return nil, nil, err
	}
	budgeter, err := cfg.NewBudgeter()
	if err != nil {
		return nil, nil, err
	}
	caps, err := NewCapabilities(logger, cfg, table, budgeter)
	if err != nil {
		return nil, nil, err
	}

	svc, err := digest.NewService(caps.Classifier, caps.Summarizer, budgeter, table, cfg.PipelineConfig())
	if err != nil {
		return nil, nil, err
	}
	logger.Info("digest service ready",
		slog.String("backend", caps.Name),
		slog.Int("categories", len(table.Categories())),
		slog.Int("chunk_token_limit", cfg.ChunkTokenLimit))
	return svc, caps, nil
}
