package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"docdigest/internal/domain/entity"
	"docdigest/internal/observability/metrics"
	"docdigest/internal/resilience/circuitbreaker"
	"docdigest/internal/resilience/retry"
	"docdigest/internal/utils/text"
)

// Feed parses an RSS, Atom or JSON feed file into one document per item.
func Feed(id string, data []byte) ([]entity.Document, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feedDocuments(id, feed), nil
}

// feedDocuments maps items to documents. The item ID is its link, then its
// GUID, then "<feed id>#<n>".
func feedDocuments(feedID string, feed *gofeed.Feed) []entity.Document {
	docs := make([]entity.Document, 0, len(feed.Items))
	for i, it := range feed.Items {
		id := it.Link
		if id == "" {
			id = it.GUID
		}
		if id == "" {
			id = fmt.Sprintf("%s#%d", feedID, i+1)
		}

		content := it.Content
		if content == "" {
			content = it.Description
		}
		parts := make([]string, 0, 2)
		if title := strings.TrimSpace(it.Title); title != "" {
			parts = append(parts, title)
		}
		if body := stripMarkup(content); body != "" {
			parts = append(parts, body)
		}
		docs = append(docs, entity.NewDocument(id, strings.Join(parts, "\n\n")))
	}
	return docs
}

func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return text.CollapseSpace(s)
	}
	return blockText(doc.Selection)
}

// FeedURL reads a remote feed. Requests go through a circuit breaker and
// are retried on timeouts, 5xx and 429 responses.
type FeedURL struct {
	url     string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config

	denyPrivateIPs bool
}

// NewFeedURL returns a FeedURL. A nil client uses a client with a 30s timeout.
func NewFeedURL(feedURL string, client *http.Client) *FeedURL {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedURL{
		url:     feedURL,
		client:  client,
		breaker: circuitbreaker.New(circuitbreaker.FetchConfig("feed-fetch")),
		retry:   retry.FetchConfig(),
	}
}

// WithRetry replaces the retry policy.
func (f *FeedURL) WithRetry(cfg retry.Config) *FeedURL {
	f.retry = cfg
	return f
}

// DenyPrivateIPs rejects feeds whose host resolves to a loopback, private
// or link-local address.
func (f *FeedURL) DenyPrivateIPs() *FeedURL {
	f.denyPrivateIPs = true
	return f
}

// Documents implements Source.
func (f *FeedURL) Documents(ctx context.Context) ([]entity.Document, error) {
	if err := ValidateFeedURL(ctx, f.url, f.denyPrivateIPs); err != nil {
		metrics.RecordSourceDocument(KindFeed, false)
		return nil, err
	}
	feed, err := retry.Do(ctx, f.retry, func() (*gofeed.Feed, error) {
		return circuitbreaker.Call(f.breaker, func() (*gofeed.Feed, error) {
			return f.fetch(ctx)
		})
	})
	if err != nil {
		metrics.RecordSourceDocument(KindFeed, false)
		return nil, fmt.Errorf("fetch feed %s: %w", f.url, err)
	}

	docs := feedDocuments(f.url, feed)
	for range docs {
		metrics.RecordSourceDocument(KindFeed, true)
	}
	slog.InfoContext(ctx, "feed fetched",
		slog.String("url", f.url),
		slog.Int("documents", len(docs)))
	return docs, nil
}

func (f *FeedURL) fetch(ctx context.Context) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "docdigest/1.0"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(f.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status, Err: err}
		}
		return nil, err
	}
	return feed, nil
}
