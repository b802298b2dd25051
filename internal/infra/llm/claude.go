package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ProviderClaude identifies the Anthropic Messages API.
const ProviderClaude = "claude"

// Claude is a Completer backed by Anthropic's Messages API.
type Claude struct {
	client anthropic.Client
	model  string
	guard  *guard
}

// NewClaude creates a Claude client. SDK-level retries are disabled so that
// retries go through the shared backoff and circuit breaker.
func NewClaude(cfg Config) (*Claude, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid claude configuration: %w", err)
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		guard:  newGuard(ProviderClaude, cfg),
	}, nil
}

// Provider implements Completer.
func (c *Claude) Provider() string { return ProviderClaude }

// Complete implements Completer.
func (c *Claude) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, usage, error) {
		return c.complete(ctx, prompt, maxTokens)
	})
}

func (c *Claude) complete(ctx context.Context, prompt string, maxTokens int) (string, usage, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", usage{}, statusError(apiErr.StatusCode, fmt.Errorf("claude api error: %w", err))
		}
		return "", usage{}, fmt.Errorf("claude api error: %w", err)
	}

	u := usage{input: message.Usage.InputTokens, output: message.Usage.OutputTokens}
	var b strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", u, ErrEmptyResponse
	}
	return b.String(), u, nil
}
