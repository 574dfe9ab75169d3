package types

// Document is the token sequence produced from one chunk of one source file.
type Document struct {
	Source string
	Tokens []Token
}

func (doc Document) Len() int {
	return len(doc.Tokens)
}

func (doc Document) Keys() []string {
	return TokenKeys(doc.Tokens)
}

// Corpus is the ordered, immutable collection of documents a run works on, together with the
// stop words and regex rules used to build it.
type Corpus struct {
	documents []Document
	stopWords StopWordSet
	rules     []RegexRule
	tagged    bool
}

func NewCorpus(documents []Document, stopWords StopWordSet, rules []RegexRule, tagged bool) (*Corpus, error) {
	if len(documents) == 0 {
		return nil, ErrEmptyCorpus
	}
	docs := make([]Document, len(documents))
	copy(docs, documents)
	ruleList := make([]RegexRule, len(rules))
	copy(ruleList, rules)
	if stopWords == nil {
		stopWords = NewStopWordSet()
	}
	return &Corpus{
		documents: docs,
		stopWords: stopWords,
		rules:     ruleList,
		tagged:    tagged,
	}, nil
}

func (corpus *Corpus) Len() int {
	return len(corpus.documents)
}

func (corpus *Corpus) Document(i int) Document {
	return corpus.documents[i]
}

// Documents returns a copy of the document list; tokens are shared and must not be modified.
func (corpus *Corpus) Documents() []Document {
	docs := make([]Document, len(corpus.documents))
	copy(docs, corpus.documents)
	return docs
}

func (corpus *Corpus) StopWords() StopWordSet {
	return corpus.stopWords
}

func (corpus *Corpus) Rules() []RegexRule {
	rules := make([]RegexRule, len(corpus.rules))
	copy(rules, corpus.rules)
	return rules
}

// Tagged reports whether tokens carry part-of-speech tags.
func (corpus *Corpus) Tagged() bool {
	return corpus.tagged
}

func (corpus *Corpus) IsStopWord(text string) bool {
	return corpus.stopWords.Contains(text)
}
