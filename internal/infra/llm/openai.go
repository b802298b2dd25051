package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ProviderOpenAI identifies the OpenAI Chat Completions API.
const ProviderOpenAI = "openai"

// OpenAI is a Completer backed by the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	model  string
	guard  *guard
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid openai configuration: %w", err)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		guard:  newGuard(ProviderOpenAI, cfg),
	}, nil
}

// Provider implements Completer.
func (o *OpenAI) Provider() string { return ProviderOpenAI }

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return o.guard.run(ctx, func(ctx context.Context) (string, usage, error) {
		return o.complete(ctx, prompt, maxTokens)
	})
}

func (o *OpenAI) complete(ctx context.Context, prompt string, maxTokens int) (string, usage, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		wrapped := fmt.Errorf("openai api error: %w", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", usage{}, statusError(apiErr.HTTPStatusCode, wrapped)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", usage{}, statusError(reqErr.HTTPStatusCode, wrapped)
		}
		return "", usage{}, wrapped
	}

	u := usage{input: int64(resp.Usage.PromptTokens), output: int64(resp.Usage.CompletionTokens)}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", u, ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, u, nil
}
