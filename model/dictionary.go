package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// BowEntry is one term of a bag-of-words document.
type BowEntry struct {
	ID    int
	Count int
}

// Bow is a bag-of-words document sorted by term id.
type Bow []BowEntry

// Dictionary maps term keys to ids and keeps their document frequencies.
type Dictionary struct {
	token2id map[string]int
	id2token []string
	dfs      []int
	numDocs  int
}

func NewDictionary(docs [][]string) *Dictionary {
	dict := &Dictionary{token2id: map[string]int{}}
	dict.AddDocuments(docs)
	return dict
}

// AddDocuments registers the terms of docs. New terms of one document get ids in sorted order.
func (dict *Dictionary) AddDocuments(docs [][]string) {
	for _, doc := range docs {
		dict.numDocs++
		seen := uniqueSorted(doc)
		for _, token := range seen {
			id, ok := dict.token2id[token]
			if !ok {
				id = len(dict.id2token)
				dict.token2id[token] = id
				dict.id2token = append(dict.id2token, token)
				dict.dfs = append(dict.dfs, 0)
			}
			dict.dfs[id]++
		}
	}
}

func uniqueSorted(doc []string) []string {
	set := make(map[string]struct{}, len(doc))
	var tokens []string
	for _, token := range doc {
		if _, ok := set[token]; ok {
			continue
		}
		set[token] = struct{}{}
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

func (dict *Dictionary) Len() int {
	return len(dict.id2token)
}

func (dict *Dictionary) NumDocs() int {
	return dict.numDocs
}

func (dict *Dictionary) ID(token string) (int, bool) {
	id, ok := dict.token2id[token]
	return id, ok
}

func (dict *Dictionary) Token(id int) string {
	return dict.id2token[id]
}

func (dict *Dictionary) DocFreq(id int) int {
	return dict.dfs[id]
}

// FilterExtremes keeps terms that occur in at least noBelow documents and in at most a noAbove
// fraction of documents, then the keepN most frequent of those. Ids are compacted in their
// previous order.
func (dict *Dictionary) FilterExtremes(noBelow int, noAbove float64, keepN int) {
	noAboveAbs := int(noAbove * float64(dict.numDocs))
	var good []int
	for id, df := range dict.dfs {
		if df >= noBelow && df <= noAboveAbs {
			good = append(good, id)
		}
	}
	if keepN > 0 && len(good) > keepN {
		sort.SliceStable(good, func(i, j int) bool {
			return dict.dfs[good[i]] > dict.dfs[good[j]]
		})
		good = good[:keepN]
		sort.Ints(good)
	}

	token2id := make(map[string]int, len(good))
	id2token := make([]string, len(good))
	dfs := make([]int, len(good))
	for newID, oldID := range good {
		token := dict.id2token[oldID]
		token2id[token] = newID
		id2token[newID] = token
		dfs[newID] = dict.dfs[oldID]
	}
	dict.token2id = token2id
	dict.id2token = id2token
	dict.dfs = dfs
}

// Doc2Bow counts the known terms of doc. Unknown terms are ignored.
func (dict *Dictionary) Doc2Bow(doc []string) Bow {
	counts := map[int]int{}
	for _, token := range doc {
		if id, ok := dict.token2id[token]; ok {
			counts[id]++
		}
	}
	bow := make(Bow, 0, len(counts))
	for id, count := range counts {
		bow = append(bow, BowEntry{ID: id, Count: count})
	}
	sort.Slice(bow, func(i, j int) bool { return bow[i].ID < bow[j].ID })
	return bow
}

func (dict *Dictionary) Corpus(docs [][]string) []Bow {
	bows := make([]Bow, len(docs))
	for i, doc := range docs {
		bows[i] = dict.Doc2Bow(doc)
	}
	return bows
}

// TermFrequencies sums the counts of every term over the whole corpus.
func TermFrequencies(bows []Bow, numTerms int) *mat.VecDense {
	freqs := mat.NewVecDense(max1(numTerms), nil)
	for _, bow := range bows {
		for _, entry := range bow {
			freqs.SetVec(entry.ID, freqs.AtVec(entry.ID)+float64(entry.Count))
		}
	}
	return freqs
}

// gonum panics on zero length vectors.
func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
