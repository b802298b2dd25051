package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docdigest/internal/domain/entity"
)

// categoryFile is the YAML layout of a category table:
//
//	fallback:
//	  source: دیگر
//	  canonical: other
//	categories:
//	  - source: کھیل
//	    canonical: sports
//	    aliases: [sport, cricket]
type categoryFile struct {
	Fallback   categoryLabel   `yaml:"fallback"`
	Categories []categoryEntry `yaml:"categories"`
}

type categoryLabel struct {
	Source    string `yaml:"source"`
	Canonical string `yaml:"canonical"`
}

type categoryEntry struct {
	categoryLabel `yaml:",inline"`
	Aliases       []string `yaml:"aliases"`
}

var defaultCategories = []entity.CategoryEntry{
	{Category: entity.Category{Source: "کھیل", Canonical: "sports"}, Aliases: []string{"sport", "cricket"}},
	{Category: entity.Category{Source: "سائنس", Canonical: "science"}},
	{Category: entity.Category{Source: "عالمی", Canonical: "world"}, Aliases: []string{"international"}},
	{Category: entity.Category{Source: "صحت", Canonical: "health"}},
	{Category: entity.Category{Source: "فن و ثقافت", Canonical: "arts"}, Aliases: []string{"art", "culture"}},
	{Category: entity.Category{Source: "کاروبار", Canonical: "business"}, Aliases: []string{"econom", "financ"}},
	{Category: entity.Category{Source: "ٹیکنالوجی", Canonical: "technology"}, Aliases: []string{"tech"}},
	{Category: entity.Category{Source: "سیاست", Canonical: "politics"}, Aliases: []string{"polit"}},
}

var defaultFallback = entity.Category{Source: "دیگر", Canonical: entity.FallbackCanonical}

// DefaultCategoryTable returns the built-in Urdu news taxonomy.
func DefaultCategoryTable() *entity.CategoryTable {
	t, err := entity.NewCategoryTable(defaultCategories, defaultFallback)
	if err != nil {
		panic(fmt.Sprintf("default category table: %v", err))
	}
	return t
}

// LoadCategoryTable reads a category table from path. An empty path yields
// DefaultCategoryTable.
func LoadCategoryTable(path string) (*entity.CategoryTable, error) {
	if path == "" {
		return DefaultCategoryTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category file: %w", err)
	}
	return ParseCategoryTable(data)
}

// ParseCategoryTable decodes a YAML category table. A missing fallback
// defaults to دیگر/other.
func ParseCategoryTable(data []byte) (*entity.CategoryTable, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse category file: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, &entity.ValidationError{Field: "categories", Message: "at least one category is required"}
	}

	fallback := defaultFallback
	if f.Fallback.Source != "" || f.Fallback.Canonical != "" {
		fallback = entity.Category{Source: f.Fallback.Source, Canonical: f.Fallback.Canonical}
	}

	entries := make([]entity.CategoryEntry, 0, len(f.Categories))
	for _, c := range f.Categories {
		entries = append(entries, entity.CategoryEntry{
			Category: entity.Category{Source: c.Source, Canonical: c.Canonical},
			Aliases:  c.Aliases,
		})
	}
	table, err := entity.NewCategoryTable(entries, fallback)
	if err != nil {
		return nil, fmt.Errorf("build category table: %w", err)
	}
	return table, nil
}
