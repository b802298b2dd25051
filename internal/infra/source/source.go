// Package source reads documents from local directories and feeds.
package source

import (
	"context"

	"docdigest/internal/domain/entity"
)

// Source kinds used as metric labels.
const (
	KindText = "text"
	KindHTML = "html"
	KindFeed = "feed"
)

// Source produces the documents of one run.
type Source interface {
	Documents(ctx context.Context) ([]entity.Document, error)
}

// ParseFunc turns the raw bytes of one file into documents. id is the
// slash-separated path of the file relative to the source root.
type ParseFunc func(id string, data []byte) ([]entity.Document, error)

// Multi concatenates the documents of several sources in order.
type Multi []Source

// Documents implements Source.
func (m Multi) Documents(ctx context.Context) ([]entity.Document, error) {
	var docs []entity.Document
	for _, s := range m {
		d, err := s.Documents(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}
