package source

import (
	"errors"
	"unicode/utf8"

	"docdigest/internal/domain/entity"
	"docdigest/internal/utils/text"
)

// ErrNotUTF8 is returned for files that are not valid UTF-8.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// PlainText reads a UTF-8 text file as one document without its leading
// BOM. Blank files still yield a document.
func PlainText(id string, data []byte) ([]entity.Document, error) {
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}
	return []entity.Document{entity.NewDocument(id, text.StripBOM(string(data)))}, nil
}
