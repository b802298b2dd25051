// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation for batch runs
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "docdigest/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    slog.SetDefault(logger)
//	    ctx := logging.WithRunID(context.Background(), uuid.NewString())
//	    logging.FromContext(ctx).Info("batch started")
//	}
package logging
