package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docdigest/internal/domain/entity"
	"docdigest/internal/observability/logging"
	"docdigest/internal/observability/metrics"
	"docdigest/internal/resilience/circuitbreaker"
	"docdigest/internal/resilience/retry"
)

const sinkPostgres = "postgres"

const upsertRecordQuery = `
INSERT INTO digest_records (
    document_id, run_id, category_source, category_canonical, summary,
    text_length, text_sample, status, chunk_count, summarized_chunks,
    skipped_chunks, issues, degraded, processed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (document_id) DO UPDATE SET
    run_id             = EXCLUDED.run_id,
    category_source    = EXCLUDED.category_source,
    category_canonical = EXCLUDED.category_canonical,
    summary            = EXCLUDED.summary,
    text_length        = EXCLUDED.text_length,
    text_sample        = EXCLUDED.text_sample,
    status             = EXCLUDED.status,
    chunk_count        = EXCLUDED.chunk_count,
    summarized_chunks  = EXCLUDED.summarized_chunks,
    skipped_chunks     = EXCLUDED.skipped_chunks,
    issues             = EXCLUDED.issues,
    degraded           = EXCLUDED.degraded,
    processed_at       = EXCLUDED.processed_at`

// Postgres upserts records into digest_records, keyed by document id.
// Every statement goes through the database circuit breaker and is retried
// on transient connection errors.
type Postgres struct {
	db    *circuitbreaker.DBCircuitBreaker
	runID string
	retry retry.Config
	now   func() time.Time
}

// NewPostgres returns a sink that tags every row with runID.
func NewPostgres(db *sql.DB, runID string) *Postgres {
	return &Postgres{
		db:    circuitbreaker.NewDBCircuitBreaker(db),
		runID: runID,
		retry: retry.DBConfig(),
		now:   time.Now,
	}
}

// WithRetry overrides the retry policy.
func (p *Postgres) WithRetry(cfg retry.Config) *Postgres {
	p.retry = cfg
	return p
}

// Write implements Sink. A failed row does not stop the remaining rows; the
// failures are joined into the returned error.
func (p *Postgres) Write(ctx context.Context, records []entity.Record) error {
	logger := logging.FromContext(ctx)
	var errs []error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.upsert(ctx, rec); err != nil {
			logger.Warn("failed to store record",
				slog.String("document_id", rec.ID),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("upsert %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Postgres) upsert(ctx context.Context, rec entity.Record) error {
	start := time.Now()
	processedAt := p.now().UTC()
	err := retry.WithBackoff(ctx, p.retry, func() error {
		_, err := p.db.ExecContext(ctx, upsertRecordQuery,
			rec.ID, p.runID, rec.Category.Source, rec.Category.Canonical, rec.Summary,
			rec.TextLength, rec.TextSample, string(rec.Status), rec.ChunkCount, rec.SummarizedChunks,
			rec.SkippedChunks, rec.IssueSummary(), rec.Degraded(), processedAt)
		return err
	})
	metrics.RecordDBQuery("upsert_record", time.Since(start))
	metrics.RecordRecordWritten(sinkPostgres, err == nil)
	return err
}

// Close is a no-op; the connection pool is owned by the caller.
func (p *Postgres) Close() error {
	return nil
}
