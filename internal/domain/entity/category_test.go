package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(t *testing.T) *CategoryTable {
	t.Helper()
	table, err := NewCategoryTable([]CategoryEntry{
		{Category: Category{Source: "کھیل", Canonical: "sports"}, Aliases: []string{"sport"}},
		{Category: Category{Source: "ٹیکنالوجی", Canonical: "technology"}, Aliases: []string{"tech"}},
		{Category: Category{Source: "فن و ثقافت", Canonical: "arts"}, Aliases: []string{"art", "culture"}},
	}, Category{Source: "دیگر", Canonical: "other"})
	require.NoError(t, err)
	return table
}

func TestCategoryTable_Resolve(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		name   string
		label  string
		want   string
		mapped bool
	}{
		{"canonical exact", "sports", "sports", true},
		{"canonical case and punctuation", " Technology. ", "technology", true},
		{"source label", "کھیل", "sports", true},
		{"source label with spaces", "  فن و ثقافت ", "arts", true},
		{"alias substring", "Sport news", "sports", true},
		{"alias tech", "high-tech", "technology", true},
		{"fallback label itself", "other", "other", true},
		{"fallback source label", "دیگر", "other", true},
		{"unknown", "weather", "other", false},
		{"empty", "   ", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Resolve(tt.label)
			assert.Equal(t, tt.mapped, ok)
			assert.Equal(t, tt.want, got.Canonical)
		})
	}
}

func TestCategoryTable_Bidirectional(t *testing.T) {
	table := testTable(t)

	for _, c := range table.Categories() {
		bySrc, ok := table.BySource(c.Source)
		require.True(t, ok)
		byCanon, ok := table.ByCanonical(c.Canonical)
		require.True(t, ok)
		assert.Equal(t, bySrc, byCanon)
	}

	assert.Equal(t, []string{"sports", "technology", "arts", "other"}, table.CanonicalLabels())
	assert.Equal(t, Category{Source: "دیگر", Canonical: "other"}, table.Fallback())
}

func TestCategoryTable_Immutable(t *testing.T) {
	table := testTable(t)

	cats := table.Categories()
	cats[0].Canonical = "mutated"

	c, ok := table.ByCanonical("sports")
	require.True(t, ok)
	assert.Equal(t, "sports", c.Canonical)
	assert.Equal(t, "sports", table.Categories()[0].Canonical)
}

func TestNewCategoryTable_Errors(t *testing.T) {
	fallback := Category{Source: "دیگر", Canonical: "other"}

	tests := []struct {
		name     string
		entries  []CategoryEntry
		fallback Category
	}{
		{"fallback must be other", nil, Category{Source: "x", Canonical: "misc"}},
		{"fallback needs source", nil, Category{Canonical: "other"}},
		{"duplicate canonical", []CategoryEntry{
			{Category: Category{Source: "a", Canonical: "sports"}},
			{Category: Category{Source: "b", Canonical: "Sports"}},
		}, fallback},
		{"duplicate source", []CategoryEntry{
			{Category: Category{Source: "a", Canonical: "sports"}},
			{Category: Category{Source: "a", Canonical: "science"}},
		}, fallback},
		{"missing canonical", []CategoryEntry{
			{Category: Category{Source: "a"}},
		}, fallback},
		{"conflicting other", []CategoryEntry{
			{Category: Category{Source: "misc", Canonical: "other"}},
		}, fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCategoryTable(tt.entries, tt.fallback)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed))
		})
	}
}

func TestNewCategoryTable_FallbackListedExplicitly(t *testing.T) {
	fallback := Category{Source: "دیگر", Canonical: "other"}
	table, err := NewCategoryTable([]CategoryEntry{{Category: fallback}}, fallback)
	require.NoError(t, err)
	assert.Len(t, table.Categories(), 1)
}
