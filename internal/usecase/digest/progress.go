package digest

import (
	"context"
	"log/slog"

	"docdigest/internal/observability/logging"
)

// ProgressReporter is notified every Config.ProgressEvery documents and once
// more when a batch finishes. Implementations must be safe for concurrent use.
type ProgressReporter interface {
	Progress(ctx context.Context, done, total int)
}

// ProgressFunc adapts a function to the ProgressReporter interface.
type ProgressFunc func(ctx context.Context, done, total int)

// Progress calls f.
func (f ProgressFunc) Progress(ctx context.Context, done, total int) {
	f(ctx, done, total)
}

// LogProgress reports progress through the context logger.
type LogProgress struct{}

// Progress implements ProgressReporter.
func (LogProgress) Progress(ctx context.Context, done, total int) {
	logging.FromContext(ctx).Info("batch progress",
		slog.Int("done", done),
		slog.Int("total", total))
}
