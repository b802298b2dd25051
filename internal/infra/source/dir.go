package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"docdigest/internal/domain/entity"
	"docdigest/internal/observability/metrics"
)

// Rule routes files whose relative path matches Pattern to Parse.
type Rule struct {
	Pattern string
	Kind    string
	Parse   ParseFunc
}

// DefaultRules reads text, HTML and feed files.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "**/*.txt", Kind: KindText, Parse: PlainText},
		{Pattern: "**/*.{html,htm}", Kind: KindHTML, Parse: HTML},
		{Pattern: "**/*.{xml,rss,atom}", Kind: KindFeed, Parse: Feed},
	}
}

// TextRules reads plain text files matching the given patterns.
func TextRules(patterns ...string) []Rule {
	rules := make([]Rule, len(patterns))
	for i, p := range patterns {
		rules[i] = Rule{Pattern: p, Kind: KindText, Parse: PlainText}
	}
	return rules
}

// Dir reads every file under a root directory that matches a rule. Files
// are visited in lexical path order; the first matching rule wins.
type Dir struct {
	root    string
	rules   []Rule
	exclude []string
}

// NewDir validates the patterns and returns a Dir.
func NewDir(root string, rules []Rule, exclude []string) (*Dir, error) {
	if len(rules) == 0 {
		return nil, &entity.ValidationError{Field: "rules", Message: "at least one rule is required"}
	}
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, &entity.ValidationError{Field: "include", Message: fmt.Sprintf("invalid pattern %q", r.Pattern)}
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, &entity.ValidationError{Field: "exclude", Message: fmt.Sprintf("invalid pattern %q", p)}
		}
	}
	return &Dir{root: root, rules: rules, exclude: exclude}, nil
}

// Root returns the directory being read.
func (d *Dir) Root() string { return d.root }

// Documents implements Source. A missing root is an error; an unreadable
// or unparsable file is logged and skipped.
func (d *Dir) Documents(ctx context.Context) ([]entity.Document, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("open source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", d.root)
	}

	var paths []string
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable path",
				slog.String("path", path),
				slog.Any("error", err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source directory: %w", err)
	}
	sort.Strings(paths)

	var docs []entity.Document
	for _, path := range paths {
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			continue
		}
		id := filepath.ToSlash(rel)
		if d.excluded(id) {
			continue
		}
		rule, ok := d.match(id)
		if !ok {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable file",
				slog.String("file", id),
				slog.Any("error", err))
			metrics.RecordSourceDocument(rule.Kind, false)
			continue
		}
		parsed, err := rule.Parse(id, data)
		if err != nil {
			slog.WarnContext(ctx, "skipping unparsable file",
				slog.String("file", id),
				slog.String("kind", rule.Kind),
				slog.Any("error", err))
			metrics.RecordSourceDocument(rule.Kind, false)
			continue
		}
		for range parsed {
			metrics.RecordSourceDocument(rule.Kind, true)
		}
		docs = append(docs, parsed...)
	}

	slog.InfoContext(ctx, "source directory read",
		slog.String("root", d.root),
		slog.Int("files", len(paths)),
		slog.Int("documents", len(docs)))
	return docs, nil
}

func (d *Dir) excluded(id string) bool {
	for _, p := range d.exclude {
		if doublestar.MatchUnvalidated(p, id) {
			return true
		}
	}
	return false
}

func (d *Dir) match(id string) (Rule, bool) {
	for _, r := range d.rules {
		if doublestar.MatchUnvalidated(r.Pattern, id) {
			return r, true
		}
	}
	return Rule{}, false
}
