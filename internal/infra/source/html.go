package source

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"docdigest/internal/domain/entity"
	"docdigest/internal/utils/text"
)

// ErrNoReadableContent is returned when neither readability nor the
// fallback selectors find any text.
var ErrNoReadableContent = errors.New("no readable content found")

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre"

// HTML extracts the main article text of an HTML page. Readability is
// tried first; pages it cannot handle fall back to the blog post body or
// the whole <body>. Block elements become paragraphs.
func HTML(id string, data []byte) ([]entity.Document, error) {
	if body, ok := readable(id, data); ok {
		return []entity.Document{entity.NewDocument(id, body)}, nil
	}
	body, err := fallbackText(data)
	if err != nil {
		return nil, err
	}
	return []entity.Document{entity.NewDocument(id, body)}, nil
}

func readable(id string, data []byte) (string, bool) {
	pageURL := &url.URL{Scheme: "file", Path: "/" + strings.TrimPrefix(id, "/")}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", false
	}
	body := blockText(doc.Selection)
	return body, body != ""
}

func fallbackText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	for _, sel := range []string{"div.post-body", "article", "main", "body"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if body := blockText(s); body != "" {
				return body, nil
			}
		}
	}
	return "", ErrNoReadableContent
}

// blockText joins the text of top-level block elements with blank lines,
// or collapses the whole selection when it has none.
func blockText(sel *goquery.Selection) string {
	var parts []string
	sel.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if t := text.CollapseSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return text.CollapseSpace(sel.Text())
	}
	return strings.Join(parts, "\n\n")
}
