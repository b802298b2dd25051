package entity

import (
	"errors"
	"fmt"
)

// Failure taxonomy of the digest pipeline. Each kind is absorbed by the
// processor and turned into a fallback value on the record.
var (
	// ErrClassificationFailure indicates the classification capability failed.
	ErrClassificationFailure = errors.New("classification failed")

	// ErrSummarizationFailure indicates the summarization capability failed for a chunk.
	ErrSummarizationFailure = errors.New("summarization failed")

	// ErrEmptyInput indicates a document with empty or whitespace-only text.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnmappableLabel indicates a classifier label outside the category table.
	ErrUnmappableLabel = errors.New("unmappable label")
)

// Sentinel errors for configuration and input validation.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
