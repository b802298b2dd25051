// Package sink writes finished digest records to their destinations.
package sink

import (
	"context"
	"errors"

	"docdigest/internal/domain/entity"
)

// Sink receives records in batch order. Implementations are not required to
// be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, records []entity.Record) error
	Close() error
}

// Multi fans records out to every sink. A failing sink does not stop the
// others; all errors are joined.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, records []entity.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
