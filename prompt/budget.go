package prompt

import (
	"github.com/pkoukk/tiktoken-go"
)

// Budget truncates prompt context to a token window so capability prompts stay
// within the backing model's limits.
type Budget struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// NewBudget creates a budget for the given model (or encoding) name.
func NewBudget(model string, maxTokens int) (*Budget, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// try by encoding name
		enc, err = tiktoken.GetEncoding(model)
		if err != nil {
			return nil, err
		}
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Budget{enc: enc, maxTokens: maxTokens}, nil
}

// CountTokens returns the token count of text.
func (b *Budget) CountTokens(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// Fit returns text truncated to the configured token window.
func (b *Budget) Fit(text string) string {
	ids := b.enc.Encode(text, nil, nil)
	if len(ids) <= b.maxTokens {
		return text
	}
	return b.enc.Decode(ids[:b.maxTokens])
}
