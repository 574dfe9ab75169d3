package tokenizer

import (
	"strings"

	"github.com/KBNLresearch/frame-generator/types"
	prose "github.com/jdkato/prose/v2"
)

// Tokenize produces lowercase word tokens for each sentence. Tokens carry no tag.
func Tokenize(sentences []string) ([]types.Token, error) {
	var tokens []types.Token
	for _, sentence := range sentences {
		words, err := Words(sentence)
		if err != nil {
			return nil, err
		}
		for _, w := range words {
			tokens = append(tokens, types.Token{Text: w})
		}
	}
	return tokens, nil
}

// Words splits one sentence on word boundaries.
func Words(sentence string) ([]string, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, nil
	}
	doc, err := prose.NewDocument(
		sentence,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}
	words := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		if tok.Text == "" {
			continue
		}
		words = append(words, strings.ToLower(tok.Text))
	}
	return words, nil
}
