package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"docdigest/internal/domain/entity"
	"docdigest/internal/observability/metrics"
)

const sinkCSV = "csv"

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// Header is the column layout of the CSV output.
var Header = []string{
	"file_name",
	"file_path",
	"category_source",
	"category_canonical",
	"summary",
	"text_length",
	"text_sample",
	"status",
	"issues",
}

// CSV writes records as UTF-8 CSV with a byte order mark. The BOM and header
// are written before the first row.
type CSV struct {
	w       *csv.Writer
	closer  io.Closer
	started bool
}

// NewCSV writes to w. Close does not close w.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// CreateCSV creates (or truncates) the file at name, creating parent
// directories as needed.
func CreateCSV(name string) (*CSV, error) {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create csv directory: %w", err)
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	return &CSV{w: csv.NewWriter(f), closer: f}, nil
}

// Write implements Sink.
func (c *CSV) Write(ctx context.Context, records []entity.Record) error {
	if err := c.start(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.w.Write(Row(rec)); err != nil {
			metrics.RecordRecordWritten(sinkCSV, false)
			return fmt.Errorf("write csv row %s: %w", rec.ID, err)
		}
		metrics.RecordRecordWritten(sinkCSV, true)
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes buffered rows and closes the underlying file, if any. A sink
// that never received records still gets its header.
func (c *CSV) Close() error {
	if err := c.start(); err != nil {
		return err
	}
	c.w.Flush()
	err := c.w.Error()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
		c.closer = nil
	}
	return err
}

func (c *CSV) start() error {
	if c.started {
		return nil
	}
	c.started = true
	// csv.Writer has no raw write; the BOM is prefixed onto the first header cell.
	header := append([]string(nil), Header...)
	header[0] = bom + header[0]
	if err := c.w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	return nil
}

// Row renders one record in Header order.
func Row(rec entity.Record) []string {
	return []string{
		path.Base(filepath.ToSlash(rec.ID)),
		rec.ID,
		rec.Category.Source,
		rec.Category.Canonical,
		rec.Summary,
		strconv.Itoa(rec.TextLength),
		rec.TextSample,
		string(rec.Status),
		rec.IssueSummary(),
	}
}
