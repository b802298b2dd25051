package llm

import (
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	pkgconfig "docdigest/internal/pkg/config"
	"docdigest/internal/resilience/circuitbreaker"
	"docdigest/internal/resilience/retry"
)

// Defaults shared by both providers.
const (
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 5.0
)

var (
	// DefaultClaudeModel is used when CLAUDE_MODEL is unset.
	DefaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)
	// DefaultOpenAIModel is used when OPENAI_MODEL is unset.
	DefaultOpenAIModel = openai.GPT4oMini
)

var errNegativeRate = errors.New("must not be negative")

// ConfigMetrics tracks fallbacks applied while loading model client settings.
var ConfigMetrics = pkgconfig.NewConfigMetrics("llm")

// LoadClaudeConfig reads ANTHROPIC_API_KEY, ANTHROPIC_BASE_URL, CLAUDE_MODEL,
// LLM_TIMEOUT and LLM_REQUESTS_PER_SECOND.
func LoadClaudeConfig() (Config, []string) {
	return load("ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "CLAUDE_MODEL", DefaultClaudeModel, "claude-api")
}

// LoadOpenAIConfig reads OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL,
// LLM_TIMEOUT and LLM_REQUESTS_PER_SECOND.
func LoadOpenAIConfig() (Config, []string) {
	return load("OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", DefaultOpenAIModel, "openai-api")
}

func load(keyEnv, urlEnv, modelEnv, defaultModel, breaker string) (Config, []string) {
	l := pkgconfig.NewLoader(ConfigMetrics)
	cfg := Config{
		APIKey:  pkgconfig.LoadEnvString(keyEnv, ""),
		BaseURL: pkgconfig.LoadEnvString(urlEnv, ""),
		Model:   pkgconfig.LoadEnvString(modelEnv, defaultModel),
		Timeout: l.Duration("LLM_TIMEOUT", DefaultTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, time.Second, 10*time.Minute)
		}),
		RequestsPerSecond: l.Float("LLM_REQUESTS_PER_SECOND", DefaultRequestsPerSecond, func(v float64) error {
			if v < 0 {
				return errNegativeRate
			}
			return nil
		}),
		Retry:   retry.ModelAPIConfig(),
		Breaker: circuitbreaker.ModelAPIConfig(breaker),
	}
	l.Finish()
	return cfg, l.Warnings()
}
