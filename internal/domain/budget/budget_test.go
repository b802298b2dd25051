package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristic_EstimateTokens(t *testing.T) {
	h := NewHeuristic(4)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"short word", "cat", 1},
		{"word of exactly four", "four", 1},
		{"long word split into pieces", "abcdefghij", 3},
		{"words and punctuation", "Hello, world!", 6},
		{"urdu words", "کھیل اور سیاست", 4},
		{"digits", "2024", 1},
		{"symbols", "a+b=c", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.EstimateTokens(tt.text))
		})
	}
}

func TestHeuristic_DefaultRunesPerToken(t *testing.T) {
	assert.Equal(t, DefaultRunesPerToken, NewHeuristic(0).RunesPerToken())
	assert.Equal(t, DefaultRunesPerToken, NewHeuristic(-3).RunesPerToken())
	assert.Equal(t, 2, NewHeuristic(2).RunesPerToken())
}

func TestHeuristic_Truncate(t *testing.T) {
	h := NewHeuristic(4)

	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"empty text", "", 5, ""},
		{"zero budget", "hello world", 0, ""},
		{"negative budget", "hello world", -1, ""},
		{"fits unchanged", "one two", 5, "one two"},
		{"cut at word boundary", "one two three", 2, "one two"},
		{"cut inside long word on piece boundary", "abcdefghij", 2, "abcdefgh"},
		{"punctuation is its own token", "yes, no", 2, "yes,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Truncate(tt.text, tt.max))
		})
	}
}

func TestHeuristic_TruncateProperties(t *testing.T) {
	h := NewHeuristic(4)
	corpus := []string{
		"Sentence one. Sentence two. Sentence three.",
		strings.Repeat("کرکٹ میچ میں پاکستان نے کامیابی حاصل کی۔ ", 20),
		"supercalifragilisticexpialidocious",
		"a\n\nb\n\nc",
		"!!!???...",
	}

	for _, text := range corpus {
		for b := 1; b <= 40; b++ {
			got := h.Truncate(text, b)
			assert.LessOrEqual(t, h.EstimateTokens(got), b)
			assert.True(t, strings.HasPrefix(text, got))
			assert.Equal(t, got, h.Truncate(text, b), "deterministic")
		}
	}
}

func TestHeuristic_Monotonic(t *testing.T) {
	h := NewHeuristic(4)
	text := "The quick brown fox, jumping over lazy dogs; کھیل اور سیاست!"

	prev := 0
	for i := range text {
		n := h.EstimateTokens(text[:i])
		assert.GreaterOrEqual(t, n, prev, "prefix %q", text[:i])
		prev = n
	}
	assert.GreaterOrEqual(t, h.EstimateTokens(text), prev)
}

func TestTiktoken_Budgeter(t *testing.T) {
	tk, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	var _ Budgeter = tk
	assert.Equal(t, DefaultEncoding, tk.Encoding())
	assert.Equal(t, 0, tk.EstimateTokens(""))
	assert.Equal(t, "", tk.Truncate("hello world", 0))
	assert.Equal(t, "hello world", tk.Truncate("hello world", 100))

	text := strings.Repeat("Segmenting documents under a budget. ", 10)
	for _, b := range []int{1, 3, 7, 20} {
		got := tk.Truncate(text, b)
		assert.LessOrEqual(t, tk.EstimateTokens(got), b)
		assert.True(t, strings.HasPrefix(text, got))
	}
}
