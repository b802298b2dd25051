// Package llm provides language model clients for the model-backed
// classifier and summarizer. Every client runs its requests through a
// rate limiter, retry with backoff and a circuit breaker, and records
// request and token metrics.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"docdigest/internal/observability/metrics"
	"docdigest/internal/resilience/circuitbreaker"
	"docdigest/internal/resilience/retry"
)

// Completer sends a single prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Provider names the backing API ("claude", "openai").
	Provider() string
}

// ErrEmptyResponse is returned when the API answers without any text.
var ErrEmptyResponse = errors.New("model returned empty response")

// Config configures a Completer.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
	// Timeout bounds a single Complete call including retries.
	Timeout time.Duration
	// RequestsPerSecond limits outgoing requests. 0 disables limiting.
	RequestsPerSecond float64
	Retry             retry.Config
	Breaker           circuitbreaker.Config
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api key is required")
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// usage is the token accounting reported by one API response.
type usage struct {
	input  int64
	output int64
}

// guard holds the reliability wrappers shared by all clients.
type guard struct {
	provider string
	model    string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *circuitbreaker.CircuitBreaker
	retry    retry.Config
}

func newGuard(provider string, cfg Config) *guard {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &guard{
		provider: provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  circuitbreaker.New(cfg.Breaker),
		retry:    cfg.Retry,
	}
}

// run executes one logical request. call performs a single attempt and
// reports token usage.
func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, usage, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	requestID := uuid.New().String()
	logger := slog.With(
		slog.String("request_id", requestID),
		slog.String("provider", g.provider),
		slog.String("model", g.model))

	start := time.Now()
	out, err := retry.Do(ctx, g.retry, func() (string, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
		return circuitbreaker.Call(g.breaker, func() (string, error) {
			text, u, err := call(ctx)
			metrics.RecordModelRequest(g.provider, err == nil)
			metrics.RecordModelTokens(g.provider, u.input, u.output)
			return text, err
		})
	})
	duration := time.Since(start)

	if err != nil {
		logger.WarnContext(ctx, "model request failed",
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return "", fmt.Errorf("%s request failed: %w", g.provider, err)
	}

	logger.DebugContext(ctx, "model request completed",
		slog.Duration("duration", duration),
		slog.Int("response_length", len(out)))
	return out, nil
}

// statusError converts an HTTP status reported by an SDK into a
// retry.HTTPError so the retry policy can classify it.
func statusError(status int, err error) error {
	if status == 0 {
		return err
	}
	return &retry.HTTPError{StatusCode: status, Message: err.Error(), Err: err}
}
