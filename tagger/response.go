package tagger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KBNLresearch/frame-generator/types"
)

const (
	ResponseColumns = 10
	lemmaColumn     = 2
	tagColumn       = 4
)

var (
	ErrEmptyResponse   = errors.New("tagger data not found")
	ErrInvalidResponse = errors.New("tagger data invalid")
)

// ParseResponse reads the tab separated annotation rows returned by the tagging service. Every
// non-empty row must have exactly ResponseColumns fields; the lemma (lowercased) and the tag
// (without parenthesized detail) form the token.
func ParseResponse(data string) ([]types.Token, error) {
	var rows [][]string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if len(rows) == 0 {
		return nil, ErrEmptyResponse
	}

	tokens := make([]types.Token, 0, len(rows))
	for i, row := range rows {
		if len(row) != ResponseColumns {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrInvalidResponse, i+1, len(row))
		}
		tag, _, _ := strings.Cut(row[tagColumn], "(")
		tokens = append(tokens, types.Token{
			Text: strings.ToLower(row[lemmaColumn]),
			Tag:  tag,
		})
	}
	return tokens, nil
}
