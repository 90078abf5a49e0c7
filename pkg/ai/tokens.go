package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenEncoder is the encoding used to size merge-confirmation
// prompts when the caller does not configure one.
const DefaultTokenEncoder = "o200k_base"

// CountTokens returns the token count of text under the named encoding.
// If the encoding cannot be loaded (offline vocabularies), it falls back
// to a conservative bytes/3 estimate so batching still has a bound.
func CountTokens(text string, encoder string) int {
	if encoder == "" {
		encoder = DefaultTokenEncoder
	}
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return len(text)/3 + 1
	}
	return len(enc.Encode(text, nil, nil))
}
