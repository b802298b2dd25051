package source

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdigest/internal/domain/entity"
	"docdigest/internal/resilience/retry"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func ids(docs []entity.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>BBC Urdu</title>
  <item>
    <title>Cricket final</title>
    <link>https://example.com/news/1</link>
    <description>&lt;p&gt;Pakistan won the final.&lt;/p&gt;&lt;p&gt;Fans celebrated.&lt;/p&gt;</description>
  </item>
  <item>
    <title>Budget passed</title>
    <guid>urn:news:2</guid>
    <description>Parliament passed the budget.</description>
  </item>
  <item>
    <title>Untitled link</title>
  </item>
</channel>
</rss>`

/* ───────── Directory ───────── */

func TestDir_Documents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", "\ufeff  Second file.  \n")
	writeFile(t, root, "a.txt", "First file.")
	writeFile(t, root, "nested/c.txt", "Nested file.")
	writeFile(t, root, "nested/skip/d.txt", "Excluded file.")
	writeFile(t, root, "empty.txt", "   \n")
	writeFile(t, root, "notes.md", "Not matched.")
	writeFile(t, root, "binary.txt", string([]byte{0xff, 0xfe, 0x00}))

	dir, err := NewDir(root, TextRules("**/*.txt"), []string{"**/skip/**"})
	require.NoError(t, err)

	docs, err := dir.Documents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "b.txt", "empty.txt", "nested/c.txt"}, ids(docs))
	assert.Equal(t, "  Second file.  \n", docs[1].Text)
	assert.True(t, docs[2].IsBlank())
	assert.Equal(t, root, dir.Root())
}

func TestDir_DefaultRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "Plain text.")
	writeFile(t, root, "feeds/news.rss", rssFeed)
	writeFile(t, root, "pages/post.html", `<html><body><div class="post-body"><p>Hello from the blog.</p></div></body></html>`)

	dir, err := NewDir(root, DefaultRules(), nil)
	require.NoError(t, err)

	docs, err := dir.Documents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.txt",
		"https://example.com/news/1",
		"urn:news:2",
		"feeds/news.rss#3",
		"pages/post.html",
	}, ids(docs))
	assert.Contains(t, docs[4].Text, "Hello from the blog.")
}

func TestNewDir_Errors(t *testing.T) {
	_, err := NewDir(t.TempDir(), nil, nil)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = NewDir(t.TempDir(), TextRules("[unclosed"), nil)
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = NewDir(t.TempDir(), TextRules("**/*.txt"), []string{"{bad"})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)
}

func TestDir_MissingRoot(t *testing.T) {
	dir, err := NewDir(filepath.Join(t.TempDir(), "missing"), TextRules("**/*.txt"), nil)
	require.NoError(t, err)

	_, err = dir.Documents(context.Background())
	assert.Error(t, err)
}

func TestDir_ContextCanceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "text")

	dir, err := NewDir(root, TextRules("**/*.txt"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = dir.Documents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

/* ───────── Parsers ───────── */

func TestPlainText(t *testing.T) {
	docs, err := PlainText("x.txt", []byte("\ufeffکھیل کی خبر\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, entity.NewDocument("x.txt", "کھیل کی خبر\n"), docs[0])
	assert.Equal(t, 12, docs[0].Length())

	docs, err = PlainText("y.txt", []byte("  indented\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "  indented\n\n", docs[0].Text)

	_, err = PlainText("x.txt", []byte{0xc3, 0x28})
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestHTML_Readability(t *testing.T) {
	page := `<html><head><title>Match report</title></head><body>
<nav><a href="/">Home</a> <a href="/sport">Sport</a></nav>
<article>
<h1>Pakistan win the final</h1>
<p>Pakistan beat India by five wickets in a tense final at the Dubai International Stadium on Sunday evening, with the winning runs coming off the penultimate ball of the match.</p>
<p>The captain praised the bowlers for restricting the opposition to a modest total after a strong start, and said the team had prepared for months for the tournament.</p>
<p>Thousands of fans celebrated in the streets of Lahore and Karachi late into the night as the news spread across the country.</p>
</article>
<footer>Copyright</footer>
</body></html>`

	docs, err := HTML("sport/final.html", []byte(page))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	body := docs[0].Text
	assert.Contains(t, body, "Pakistan beat India by five wickets")
	assert.Contains(t, body, "Thousands of fans celebrated")
	assert.NotContains(t, body, "Copyright")
	assert.Contains(t, body, "\n\n", "paragraphs are kept apart")
}

func TestFallbackText(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "post body",
			page: `<html><body><div class="sidebar">Archive</div><div class="post-body"><p>One.</p><p>Two.</p></div></body></html>`,
			want: "One.\n\nTwo.",
		},
		{
			name: "body without blocks",
			page: `<html><body><script>var x = 1;</script>Just   some text</body></html>`,
			want: "Just some text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fallbackText([]byte(tt.page))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := fallbackText([]byte(`<html><body>   </body></html>`))
	assert.ErrorIs(t, err, ErrNoReadableContent)
}

func TestFeed(t *testing.T) {
	docs, err := Feed("feeds/news.rss", []byte(rssFeed))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "https://example.com/news/1", docs[0].ID)
	assert.Equal(t, "Cricket final\n\nPakistan won the final.\n\nFans celebrated.", docs[0].Text)
	assert.Equal(t, "urn:news:2", docs[1].ID)
	assert.Equal(t, "Budget passed\n\nParliament passed the budget.", docs[1].Text)
	assert.Equal(t, "feeds/news.rss#3", docs[2].ID)
	assert.Equal(t, "Untitled link", docs[2].Text)

	_, err = Feed("bad.rss", []byte("not a feed"))
	assert.Error(t, err)
}

/* ───────── Remote Feed ───────── */

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestFeedURL_Documents(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	docs, err := NewFeedURL(server.URL, server.Client()).WithRetry(fastRetry()).Documents(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, int32(2), hits.Load())
	assert.True(t, strings.HasPrefix(docs[2].ID, server.URL))
}

func TestFeedURL_NotFoundNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewFeedURL(server.URL, server.Client()).WithRetry(fastRetry()).Documents(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFeedURL_DenyPrivateIPs(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	_, err := NewFeedURL(server.URL, server.Client()).DenyPrivateIPs().Documents(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrivateIP))
	assert.Equal(t, int32(0), hits.Load())
}

func TestValidateFeedURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{name: "https", url: "https://example.com/feed.xml"},
		{name: "http with port", url: "http://example.com:8080/rss"},
		{name: "file scheme", url: "file:///etc/passwd", want: ErrInvalidURL},
		{name: "no scheme", url: "example.com/feed", want: ErrInvalidURL},
		{name: "empty host", url: "http:///feed", want: ErrInvalidURL},
		{name: "unparsable", url: "http://[::1", want: ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeedURL(context.Background(), tt.url, false)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isPrivateIP(net.ParseIP(tt.ip)), tt.ip)
	}
}

func TestMulti(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "A")
	other := t.TempDir()
	writeFile(t, other, "b.txt", "B")

	d1, err := NewDir(root, TextRules("*.txt"), nil)
	require.NoError(t, err)
	d2, err := NewDir(other, TextRules("*.txt"), nil)
	require.NoError(t, err)

	docs, err := Multi{d1, d2}.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, ids(docs))
}
