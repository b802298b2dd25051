package budget

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when no encoding or model name is given.
const DefaultEncoding = "cl100k_base"

// Tiktoken is a Budgeter backed by a BPE vocabulary, for deployments whose
// limits are enforced by OpenAI-compatible tokenizers.
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding, or the encoding of a known model name.
func NewTiktoken(modelOrEncoding string) (*Tiktoken, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = DefaultEncoding
	}

	tke, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(modelOrEncoding)
		if err != nil {
			return nil, fmt.Errorf("load tiktoken encoding %q: %w", modelOrEncoding, err)
		}
	}

	return &Tiktoken{encodingName: modelOrEncoding, tke: tke}, nil
}

// Encoding returns the encoding or model name the budgeter was built with.
func (t *Tiktoken) Encoding() string {
	return t.encodingName
}

// EstimateTokens implements Budgeter.
func (t *Tiktoken) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.tke.Encode(text, nil, nil))
}

// Truncate implements Budgeter. Token ids are decoded back to text, shrinking
// the id window until the decoded prefix is valid UTF-8, is a prefix of the
// input and re-encodes within max.
func (t *Tiktoken) Truncate(text string, max int) string {
	if text == "" || max <= 0 {
		return ""
	}

	ids := t.tke.Encode(text, nil, nil)
	if len(ids) <= max {
		return text
	}

	for n := max; n > 0; n-- {
		prefix := t.tke.Decode(ids[:n])
		if !utf8.ValidString(prefix) || !strings.HasPrefix(text, prefix) {
			continue
		}
		if t.EstimateTokens(prefix) <= max {
			return prefix
		}
	}
	return ""
}
