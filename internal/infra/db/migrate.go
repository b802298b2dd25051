package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the digest_records table and its indexes. It is
// idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS digest_records (
    document_id        TEXT PRIMARY KEY,
    run_id             TEXT NOT NULL,
    category_source    TEXT NOT NULL DEFAULT '',
    category_canonical TEXT NOT NULL DEFAULT '',
    summary            TEXT NOT NULL DEFAULT '',
    text_length        INTEGER NOT NULL DEFAULT 0,
    text_sample        TEXT NOT NULL DEFAULT '',
    status             VARCHAR(20) NOT NULL,
    chunk_count        INTEGER NOT NULL DEFAULT 0,
    summarized_chunks  INTEGER NOT NULL DEFAULT 0,
    skipped_chunks     INTEGER NOT NULL DEFAULT 0,
    issues             TEXT NOT NULL DEFAULT '',
    degraded           BOOLEAN NOT NULL DEFAULT FALSE,
    processed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create digest_records: %w", err)
	}

	indexes := []string{
		// category breakdowns
		`CREATE INDEX IF NOT EXISTS idx_digest_records_category ON digest_records(category_canonical)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_records_run_id ON digest_records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_records_processed_at ON digest_records(processed_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// MigrateDown drops the digest_records table and its indexes.
// Use with caution: this deletes every stored record.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_digest_records_processed_at`,
		`DROP INDEX IF EXISTS idx_digest_records_run_id`,
		`DROP INDEX IF EXISTS idx_digest_records_category`,
		`DROP TABLE IF EXISTS digest_records`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
