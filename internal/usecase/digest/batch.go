package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"docdigest/internal/domain/entity"
	"docdigest/internal/observability/logging"

	"golang.org/x/sync/errgroup"
)

// BatchStats summarizes one ProcessAll run.
type BatchStats struct {
	Documents               int
	Processed               int
	Skipped                 int
	Degraded                int
	ChunkFailures           int
	ClassificationFallbacks int
	Duration                time.Duration
}

func (b *BatchStats) add(rec entity.Record) {
	switch rec.Status {
	case entity.StatusProcessed:
		b.Processed++
	case entity.StatusSkipped:
		b.Skipped++
	}
	if rec.Degraded() {
		b.Degraded++
	}
	for _, is := range rec.Issues {
		switch FailureLabel(is.Kind) {
		case "summarization":
			b.ChunkFailures++
		case "classification", "unmappable_label":
			b.ClassificationFallbacks++
		}
	}
}

// ProcessAll processes documents with up to Config.Parallelism documents in
// flight and returns their records in input order.
//
// Error Handling:
//   - Per-document failures never surface here; they are recorded on each record
//   - Context cancellation stops scheduling further documents; the records
//     finished so far are returned together with the context error
func (s *Service) ProcessAll(ctx context.Context, docs []entity.Document) ([]entity.Record, *BatchStats, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	stats := &BatchStats{Documents: len(docs)}

	records := make([]entity.Record, len(docs))
	done := make([]bool, len(docs))
	var completed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Parallelism)
	for i := range docs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			records[i] = s.Process(ctx, docs[i])
			done[i] = true

			n := int(completed.Add(1))
			if s.Progress != nil && s.cfg.ProgressEvery > 0 && n%s.cfg.ProgressEvery == 0 {
				s.Progress.Progress(ctx, n, len(docs))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entity.Record, 0, len(docs))
	for i, ok := range done {
		if ok {
			out = append(out, records[i])
			stats.add(records[i])
		}
	}
	stats.Duration = time.Since(start)

	n := len(out)
	if s.Progress != nil && s.cfg.ProgressEvery > 0 && n%s.cfg.ProgressEvery != 0 {
		s.Progress.Progress(ctx, n, len(docs))
	}

	logger.Info("batch completed",
		slog.Int("documents", stats.Documents),
		slog.Int("processed", stats.Processed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("degraded", stats.Degraded),
		slog.Int("chunk_failures", stats.ChunkFailures),
		slog.Int("classification_fallbacks", stats.ClassificationFallbacks),
		slog.Duration("duration", stats.Duration))

	if err := ctx.Err(); err != nil {
		return out, stats, fmt.Errorf("process batch: %w", err)
	}
	return out, stats, nil
}
