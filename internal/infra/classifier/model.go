// Package classifier implements the classification capability: a language
// model prompted with the category table, and a naive Bayes model trained
// on labelled examples.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docdigest/internal/domain/entity"
	"docdigest/internal/infra/llm"
)

// maxLabelTokens bounds the model reply; a label is a word or two.
const maxLabelTokens = 16

// ErrNoLabel is returned when the model reply contains no label.
var ErrNoLabel = errors.New("classifier returned no label")

// Model asks a language model to pick one canonical label.
type Model struct {
	completer llm.Completer
	labels    []string
}

// NewModel builds a classifier offering the canonical labels of table.
func NewModel(completer llm.Completer, table *entity.CategoryTable) *Model {
	return &Model{completer: completer, labels: table.CanonicalLabels()}
}

func (m *Model) buildPrompt(text string) string {
	return fmt.Sprintf("Classify the following text into exactly one of these categories: %s.\n"+
		"Reply with the category name only.\n\n%s",
		strings.Join(m.labels, ", "), text)
}

// Classify returns the first non-blank line of the model reply. Mapping
// the label onto the category table is left to the caller.
func (m *Model) Classify(ctx context.Context, text string) (string, error) {
	out, err := m.completer.Complete(ctx, m.buildPrompt(text), maxLabelTokens)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if label := strings.TrimSpace(line); label != "" {
			return label, nil
		}
	}
	return "", ErrNoLabel
}
