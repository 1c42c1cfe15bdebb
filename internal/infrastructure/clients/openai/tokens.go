package openai

import (
	"fmt"

	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts prompt tokens with the model's tokenizer
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

var _ providers.TokenCounter = (*TokenCounter)(nil)

// NewTokenCounter loads the encoding for model, falling back to cl100k_base
// for models tiktoken does not know.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &TokenCounter{enc: enc}, nil
}

// CountTokens implements providers.TokenCounter
func (t *TokenCounter) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
