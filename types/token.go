package types

import (
	"strings"
)

const TagSeparator = "/"

// Token is a surface form, optionally paired with a part-of-speech tag.
type Token struct {
	Text string
	Tag  string
}

func NewToken(text string, tag string) Token {
	return Token{Text: text, Tag: tag}
}

// ParseToken reads the canonical key produced by Key. The first separator splits text and tag.
func ParseToken(key string) Token {
	text, tag, found := strings.Cut(key, TagSeparator)
	if !found {
		return Token{Text: key}
	}
	return Token{Text: text, Tag: tag}
}

func (token Token) HasTag() bool {
	return len(token.Tag) > 0
}

// Key is the canonical string a token is compared, counted and serialized by.
func (token Token) Key() string {
	if !token.HasTag() {
		return token.Text
	}
	return token.Text + TagSeparator + token.Tag
}

func (token Token) String() string {
	return token.Key()
}

func TokenKeys(tokens []Token) []string {
	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = token.Key()
	}
	return keys
}

func ParseTokens(keys []string) []Token {
	tokens := make([]Token, len(keys))
	for i, key := range keys {
		tokens[i] = ParseToken(key)
	}
	return tokens
}
