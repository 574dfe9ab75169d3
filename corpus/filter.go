package corpus

import (
	"unicode/utf8"

	"github.com/KBNLresearch/frame-generator/types"
)

const MinTermLength = 3

// ExcludedTags are the punctuation, determiner, preposition and conjunction tags of the tagger.
var ExcludedTags = map[string]struct{}{
	"LET": {},
	"LID": {},
	"VZ":  {},
	"VG":  {},
}

const (
	smallCorpusSize = 10
	keepN           = 100000
)

// PruneThresholds returns the document frequency bounds for vocabulary pruning: a term must occur
// in at least noBelow documents and in at most a noAbove fraction of them.
func PruneThresholds(numDocs int) (noBelow int, noAbove float64, keep int) {
	if numDocs <= smallCorpusSize {
		return 1, 1.0, keepN
	}
	return 2, 0.95, keepN
}

// AcceptTerm is the shared term filter of vocabulary, keyword and frame candidates: long enough
// and not a stop word. tags, when non-empty, is an allow-list.
func AcceptTerm(token types.Token, stopWords types.StopWordSet, tags map[string]struct{}) bool {
	if utf8.RuneCountInString(token.Text) < MinTermLength {
		return false
	}
	if stopWords.Contains(token.Text) {
		return false
	}
	if len(tags) > 0 {
		if _, ok := tags[token.Tag]; !ok {
			return false
		}
	}
	return true
}

// VocabularyTerms yields the filtered term keys of every document, the input of vocabulary and
// bag-of-words construction.
func VocabularyTerms(corpus *types.Corpus) [][]string {
	terms := make([][]string, corpus.Len())
	for i, doc := range corpus.Documents() {
		docTerms := make([]string, 0, doc.Len())
		for _, token := range doc.Tokens {
			if !AcceptTerm(token, corpus.StopWords(), nil) {
				continue
			}
			if corpus.Tagged() {
				if _, excluded := ExcludedTags[token.Tag]; excluded {
					continue
				}
			}
			docTerms = append(docTerms, token.Key())
		}
		terms[i] = docTerms
	}
	return terms
}

// TagSet builds an allow-list; an empty list allows every tag.
func TagSet(tags []string) map[string]struct{} {
	if len(tags) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}
