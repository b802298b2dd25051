package entity

import (
	"errors"
	"fmt"
	"strings"
)

// NoSummaryAvailable is the summary of a processed document for which no
// chunk produced a usable fragment.
const NoSummaryAvailable = "no summary available"

// Status is the outcome of processing a single document.
type Status string

const (
	// StatusProcessed means the document went through classification and summarization.
	StatusProcessed Status = "processed"
	// StatusSkipped means the document had no content and no capability was called.
	StatusSkipped Status = "skipped"
)

// Issue records one absorbed failure on a record.
type Issue struct {
	// Kind is one of the taxonomy sentinels (ErrClassificationFailure, ...).
	Kind error
	// Chunk is the 1-based chunk index for per-chunk failures, 0 otherwise.
	Chunk  int
	Detail string
}

// String renders the issue as "kind[#chunk]: detail".
func (i Issue) String() string {
	var b strings.Builder
	if i.Kind != nil {
		b.WriteString(i.Kind.Error())
	}
	if i.Chunk > 0 {
		fmt.Fprintf(&b, "#%d", i.Chunk)
	}
	if i.Detail != "" {
		b.WriteString(": ")
		b.WriteString(i.Detail)
	}
	return b.String()
}

// Record is the final per-document output of the pipeline.
type Record struct {
	ID               string
	Category         Category
	Summary          string
	TextLength       int
	TextSample       string
	Status           Status
	ChunkCount       int
	SummarizedChunks int
	SkippedChunks    int
	Issues           []Issue
}

// Degraded reports whether any fallback value was used for the record.
func (r Record) Degraded() bool {
	return len(r.Issues) > 0 || r.Summary == NoSummaryAvailable
}

// HasIssue reports whether the record carries an issue of the given kind.
func (r Record) HasIssue(kind error) bool {
	for _, is := range r.Issues {
		if errors.Is(is.Kind, kind) {
			return true
		}
	}
	return false
}

// IssueSummary joins all issues with "; " for tabular output.
func (r Record) IssueSummary() string {
	parts := make([]string, 0, len(r.Issues))
	for _, is := range r.Issues {
		parts = append(parts, is.String())
	}
	return strings.Join(parts, "; ")
}
