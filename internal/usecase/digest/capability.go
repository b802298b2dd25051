package digest

import (
	"context"
	"fmt"
)

// Classifier assigns a raw category label to a bounded text.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// Summarizer produces a summary of text between minLen and maxLen tokens.
// Implementations must be safe for concurrent use.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (string, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, text string, maxLen, minLen int) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	return f(ctx, text, maxLen, minLen)
}

// guard runs a capability call, converting a panic into an error.
func guard(call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()
	return call()
}
