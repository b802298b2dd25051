package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docdigest/internal/domain/entity"
	"docdigest/internal/infra/ledger"
	"docdigest/internal/infra/sink"
	"docdigest/internal/infra/source"
	"docdigest/internal/observability/logging"
	"docdigest/internal/usecase/digest"
)

// RunReport describes one digest run.
type RunReport struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Documents       int       `json:"documents"`
	AlreadyDigested int       `json:"already_digested"`
	Processed       int       `json:"processed"`
	Skipped         int       `json:"skipped"`
	Degraded        int       `json:"degraded"`
	Marked          int       `json:"marked"`
	Output          string    `json:"output,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Job digests the documents of a source that the ledger has not seen yet
// and writes one CSV file per run, optionally mirroring records to Postgres.
type Job struct {
	Service   *digest.Service
	Source    source.Source
	Ledger    *ledger.Ledger
	OutputDir string
	// DB enables the Postgres sink when non-nil.
	DB      *sql.DB
	Metrics *WorkerMetrics

	now func() time.Time
}

// OutputName returns the CSV file name of a run.
func OutputName(startedAt time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("digest-%s-%s.csv", startedAt.UTC().Format("20060102T150405Z"), short)
}

// Run executes one digest run. Per-document failures are absorbed by the
// digest service; Run fails only when the source, the ledger or a sink
// fails, or when ctx ends before the batch completes.
func (j *Job) Run(ctx context.Context) (RunReport, error) {
	now := j.now
	if now == nil {
		now = time.Now
	}
	report := RunReport{RunID: uuid.NewString(), StartedAt: now()}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.FromContext(ctx)

	j.Metrics.RecordRun("started")
	logger.Info("digest run started")

	err := j.run(ctx, logger, &report)
	report.DurationSeconds = time.Since(report.StartedAt).Seconds()
	j.Metrics.RecordRunDuration(report.DurationSeconds)
	if err != nil {
		report.Error = err.Error()
		j.Metrics.RecordRun("failure")
		logger.Error("digest run failed", slog.Any("error", err))
		return report, err
	}

	j.Metrics.RecordRun("success")
	j.Metrics.RecordLastSuccess()
	logger.Info("digest run completed",
		slog.Int("documents", report.Documents),
		slog.Int("already_digested", report.AlreadyDigested),
		slog.Int("processed", report.Processed),
		slog.Int("skipped", report.Skipped),
		slog.Int("degraded", report.Degraded),
		slog.String("output", report.Output))
	return report, nil
}

func (j *Job) run(ctx context.Context, logger *slog.Logger, report *RunReport) error {
	docs, err := j.Source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	report.Documents = len(docs)

	fresh, already, err := j.Ledger.Fresh(docs)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	report.AlreadyDigested = already
	j.Metrics.RecordDocuments("already_digested", already)
	if len(fresh) == 0 {
		logger.Info("no new documents to digest", slog.Int("documents", len(docs)))
		return nil
	}

	records, stats, batchErr := j.Service.ProcessAll(ctx, fresh)
	report.Processed = stats.Processed
	report.Skipped = stats.Skipped
	report.Degraded = stats.Degraded
	j.Metrics.RecordDocuments("processed", stats.Processed)
	j.Metrics.RecordDocuments("skipped", stats.Skipped)
	j.Metrics.RecordDocuments("degraded", stats.Degraded)

	if len(records) > 0 {
		output, err := j.write(ctx, report, records)
		report.Output = output
		if err != nil {
			return err
		}

		marked, err := j.Ledger.MarkAll(report.RunID, fresh, records)
		if err != nil {
			return err
		}
		report.Marked = marked
	}
	return batchErr
}

func (j *Job) write(ctx context.Context, report *RunReport, records []entity.Record) (string, error) {
	output := filepath.Join(j.OutputDir, OutputName(report.StartedAt, report.RunID))
	csvSink, err := sink.CreateCSV(output)
	if err != nil {
		return "", err
	}

	sinks := sink.Multi{csvSink}
	if j.DB != nil {
		sinks = append(sinks, sink.NewPostgres(j.DB, report.RunID))
	}

	// Finished records are written even after ctx ends.
	writeErr := sinks.Write(context.WithoutCancel(ctx), records)
	closeErr := sinks.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		return output, fmt.Errorf("write records: %w", err)
	}
	return output, nil
}
