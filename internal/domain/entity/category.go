package entity

import (
	"fmt"
	"strings"
	"unicode"
)

// FallbackCanonical is the canonical label reserved for documents whose
// classification failed or could not be mapped.
const FallbackCanonical = "other"

// Category is a label expressed in both the source language and the
// canonical label space.
type Category struct {
	Source    string
	Canonical string
}

// IsZero reports whether the category is unset.
func (c Category) IsZero() bool {
	return c.Source == "" && c.Canonical == ""
}

// CategoryEntry describes one category of a table, with optional lowercase
// substrings that also map onto it.
type CategoryEntry struct {
	Category
	Aliases []string
}

type alias struct {
	fragment string
	category Category
}

// CategoryTable is an immutable bidirectional mapping between source labels
// and canonical labels, plus the reserved fallback category.
type CategoryTable struct {
	entries     []Category
	bySource    map[string]Category
	byCanonical map[string]Category
	aliases     []alias
	fallback    Category
}

// NewCategoryTable builds a table from entries and a fallback. Source and
// canonical labels must each be unique; the fallback canonical label must be
// "other". The fallback is added to the table if it is not already listed.
func NewCategoryTable(entries []CategoryEntry, fallback Category) (*CategoryTable, error) {
	if fallback.Canonical != FallbackCanonical {
		return nil, &ValidationError{Field: "fallback", Message: fmt.Sprintf("canonical label must be %q", FallbackCanonical)}
	}
	if strings.TrimSpace(fallback.Source) == "" {
		return nil, &ValidationError{Field: "fallback", Message: "source label is required"}
	}

	t := &CategoryTable{
		bySource:    make(map[string]Category, len(entries)+1),
		byCanonical: make(map[string]Category, len(entries)+1),
		fallback:    fallback,
	}

	all := append(append([]CategoryEntry(nil), entries...), CategoryEntry{Category: fallback})
	for i, e := range all {
		isFallback := i == len(all)-1
		src := strings.TrimSpace(e.Source)
		canon := normalizeLabel(e.Canonical)
		if src == "" || canon == "" {
			return nil, &ValidationError{Field: "categories", Message: fmt.Sprintf("entry %d needs both source and canonical labels", i)}
		}
		if existing, ok := t.byCanonical[canon]; ok {
			if isFallback && existing.Source == src {
				continue
			}
			return nil, &ValidationError{Field: "categories", Message: fmt.Sprintf("duplicate canonical label %q", canon)}
		}
		if _, ok := t.bySource[src]; ok {
			return nil, &ValidationError{Field: "categories", Message: fmt.Sprintf("duplicate source label %q", src)}
		}

		c := Category{Source: src, Canonical: canon}
		t.entries = append(t.entries, c)
		t.bySource[src] = c
		t.byCanonical[canon] = c
		for _, a := range e.Aliases {
			if frag := normalizeLabel(a); frag != "" {
				t.aliases = append(t.aliases, alias{fragment: frag, category: c})
			}
		}
	}

	return t, nil
}

// Fallback returns the reserved "other" category.
func (t *CategoryTable) Fallback() Category {
	return t.fallback
}

// Categories returns all categories in table order, fallback last.
func (t *CategoryTable) Categories() []Category {
	return append([]Category(nil), t.entries...)
}

// CanonicalLabels returns the canonical labels in table order.
func (t *CategoryTable) CanonicalLabels() []string {
	labels := make([]string, len(t.entries))
	for i, c := range t.entries {
		labels[i] = c.Canonical
	}
	return labels
}

// BySource looks up a category by its exact source label.
func (t *CategoryTable) BySource(label string) (Category, bool) {
	c, ok := t.bySource[strings.TrimSpace(label)]
	return c, ok
}

// ByCanonical looks up a category by its canonical label, ignoring case.
func (t *CategoryTable) ByCanonical(label string) (Category, bool) {
	c, ok := t.byCanonical[normalizeLabel(label)]
	return c, ok
}

// Resolve maps a raw classifier label onto the table. Exact source or
// canonical matches win; otherwise the first alias contained in the label is
// used. When nothing matches it returns the fallback and false.
func (t *CategoryTable) Resolve(label string) (Category, bool) {
	if c, ok := t.BySource(trimLabel(label)); ok {
		return c, true
	}
	norm := normalizeLabel(label)
	if norm == "" {
		return t.fallback, false
	}
	if c, ok := t.byCanonical[norm]; ok {
		return c, true
	}
	for _, a := range t.aliases {
		if strings.Contains(norm, a.fragment) {
			return a.category, true
		}
	}
	return t.fallback, false
}

func trimLabel(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func normalizeLabel(s string) string {
	return strings.ToLower(trimLabel(s))
}
