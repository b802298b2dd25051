package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdigest/internal/domain/entity"
	"docdigest/internal/resilience/retry"
)

/* ──────────────────────────────── fixtures ──────────────────────────────── */

func processed() entity.Record {
	return entity.Record{
		ID:               "news/sports/match.txt",
		Category:         entity.Category{Source: "کھیل", Canonical: "sports"},
		Summary:          "Pakistan won the final.",
		TextLength:       120,
		TextSample:       "Pakistan won...",
		Status:           entity.StatusProcessed,
		ChunkCount:       2,
		SummarizedChunks: 1,
		Issues: []entity.Issue{
			{Kind: entity.ErrSummarizationFailure, Chunk: 2, Detail: "timeout"},
		},
	}
}

func skipped() entity.Record {
	return entity.Record{
		ID:     "empty.txt",
		Status: entity.StatusSkipped,
		Issues: []entity.Issue{{Kind: entity.ErrEmptyInput}},
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	require.True(t, strings.HasPrefix(data, bom), "missing byte order mark")
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(data, bom))).ReadAll()
	require.NoError(t, err)
	return rows
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

/* ──────────────────────────────── 1. CSV ──────────────────────────────── */

func TestCSV_Write(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSV(&buf)

	require.NoError(t, s.Write(context.Background(), []entity.Record{processed(), skipped()}))
	require.NoError(t, s.Close())

	want := [][]string{
		Header,
		{"match.txt", "news/sports/match.txt", "کھیل", "sports", "Pakistan won the final.", "120", "Pakistan won...", "processed", processed().IssueSummary()},
		{"empty.txt", "empty.txt", "", "", "", "0", "", "skipped", skipped().IssueSummary()},
	}
	if diff := cmp.Diff(want, readCSV(t, buf.String())); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCSV_HeaderWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSV(&buf)

	require.NoError(t, s.Write(context.Background(), []entity.Record{processed()}))
	require.NoError(t, s.Write(context.Background(), []entity.Record{skipped()}))
	require.NoError(t, s.Close())

	rows := readCSV(t, buf.String())
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, strings.Count(buf.String(), bom))
}

func TestCSV_EmptyRunStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	s := NewCSV(&buf)
	require.NoError(t, s.Close())

	assert.Equal(t, [][]string{Header}, readCSV(t, buf.String()))
}

func TestCSV_QuotesMultilineSummary(t *testing.T) {
	rec := processed()
	rec.Summary = "first line, with comma\nsecond \"quoted\" line"

	var buf bytes.Buffer
	s := NewCSV(&buf)
	require.NoError(t, s.Write(context.Background(), []entity.Record{rec}))

	rows := readCSV(t, buf.String())
	require.Len(t, rows, 2)
	assert.Equal(t, rec.Summary, rows[1][4])
}

func TestCSV_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCSV(&bytes.Buffer{}).Write(ctx, []entity.Record{processed()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateCSV(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out", "digest.csv")

	s, err := CreateCSV(name)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), []entity.Record{processed()}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Len(t, readCSV(t, string(data)), 2)
}

func TestRow_FileNameFromURL(t *testing.T) {
	rec := entity.Record{ID: "https://example.com/news/item-7", Status: entity.StatusProcessed}

	row := Row(rec)
	assert.Equal(t, "item-7", row[0])
	assert.Equal(t, rec.ID, row[1])
}

/* ──────────────────────────────── 2. Postgres ──────────────────────────────── */

func TestPostgres_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	p := NewPostgres(db, "run-1").WithRetry(fastRetry())
	p.now = func() time.Time { return at }

	rec := processed()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO digest_records`)).
		WithArgs(rec.ID, "run-1", "کھیل", "sports", rec.Summary,
			120, rec.TextSample, "processed", 2, 1,
			0, rec.IssueSummary(), true, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO digest_records`)).
		WithArgs("empty.txt", "run-1", "", "", "",
			0, "", "skipped", 0, 0,
			0, skipped().IssueSummary(), true, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Write(context.Background(), []entity.Record{rec, skipped()}))
	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RetriesTransientError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := NewPostgres(db, "run-2").WithRetry(fastRetry())

	mock.ExpectExec(`INSERT INTO digest_records`).WillReturnError(syscall.ECONNRESET)
	mock.ExpectExec(`INSERT INTO digest_records`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Write(context.Background(), []entity.Record{processed()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailedRowDoesNotStopBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := NewPostgres(db, "run-3").WithRetry(fastRetry())
	constraint := errors.New("check constraint violated")

	mock.ExpectExec(`INSERT INTO digest_records`).WillReturnError(constraint)
	mock.ExpectExec(`INSERT INTO digest_records`).WillReturnResult(sqlmock.NewResult(0, 1))

	err = p.Write(context.Background(), []entity.Record{processed(), skipped()})
	require.Error(t, err)
	assert.ErrorIs(t, err, constraint)
	assert.Contains(t, err.Error(), processed().ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

/* ──────────────────────────────── 3. Multi ──────────────────────────────── */

type failingSink struct{ err error }

func (f failingSink) Write(context.Context, []entity.Record) error { return f.err }
func (f failingSink) Close() error                                 { return f.err }

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	m := Multi{failingSink{err: boom}, NewCSV(&buf)}

	err := m.Write(context.Background(), []entity.Record{processed()})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Close(), boom)
	assert.Len(t, readCSV(t, buf.String()), 2)
}
