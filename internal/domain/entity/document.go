// Package entity defines the value types that flow through the digest pipeline:
// documents, chunks, categories and the per-document processing record.
package entity

import (
	"strings"
	"unicode/utf8"
)

// Document is one unit of input text. It is created by a source and never
// mutated afterwards.
type Document struct {
	// ID identifies the document, usually a file path or URL.
	ID   string
	Text string
}

// NewDocument returns a Document for the given id and text.
func NewDocument(id, text string) Document {
	return Document{ID: id, Text: text}
}

// Length returns the number of characters (runes) in the document text.
func (d Document) Length() int {
	return utf8.RuneCountInString(d.Text)
}

// IsBlank reports whether the document has no non-whitespace content.
func (d Document) IsBlank() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Chunk is an ordered slice of a document's text produced by segmentation.
type Chunk struct {
	// Index is 1-based and follows document order.
	Index int
	Text  string
	// Tokens is the estimated token count of Text.
	Tokens int
	// Start and End are byte offsets of Text within the document text.
	Start int
	End   int
	// Oversized marks a single unsplittable word whose token count exceeds
	// the budget it was produced under.
	Oversized bool
}
