package segmenter

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

const (
	Dutch   = "dutch"
	English = "english"
)

var ErrUnsupportedLanguage = errors.New("unsupported segmentation language")

// Punkt training parameters for Dutch, gzipped from the sentences module's data/dutch.json.
//
//go:embed data/dutch.json.gz
var dutchTraining []byte

// Abbreviations that the Dutch training data misses.
var dutchAbbreviations = []string{
	"bijv", "blz", "ca", "dhr", "enz", "evt", "hr", "jhr", "m.a.w", "mej", "mevr", "mw",
	"ong", "prof", "resp", "t.a.v", "t.o.v", "vgl", "vnl", "zgn",
}

// Segmenter splits text into sentences with a punkt model for one language.
type Segmenter struct {
	language  string
	tokenizer sentences.SentenceTokenizer
}

var (
	mu         sync.Mutex
	segmenters = map[string]*Segmenter{}
)

// New returns the segmenter for language; an empty language selects Dutch. Segmenters are
// built once per language and are safe for concurrent use.
func New(language string) (*Segmenter, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = Dutch
	}
	mu.Lock()
	defer mu.Unlock()
	if s, ok := segmenters[language]; ok {
		return s, nil
	}
	tokenizer, err := newTokenizer(language)
	if err != nil {
		return nil, err
	}
	s := &Segmenter{language: language, tokenizer: tokenizer}
	segmenters[language] = s
	return s, nil
}

func newTokenizer(language string) (sentences.SentenceTokenizer, error) {
	switch language {
	case Dutch:
		training, err := loadTraining(dutchTraining)
		if err != nil {
			return nil, fmt.Errorf("load %s training: %w", language, err)
		}
		for _, abbr := range dutchAbbreviations {
			training.AbbrevTypes.Add(abbr)
		}
		return sentences.NewSentenceTokenizer(training), nil
	case English:
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("load %s training: %w", language, err)
		}
		return tokenizer, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
}

func loadTraining(compressed []byte) (*sentences.Storage, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return sentences.LoadTraining(data)
}

func (s *Segmenter) Language() string {
	return s.language
}

// Split breaks normalized text into trimmed, non-empty sentences.
func (s *Segmenter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	found := s.tokenizer.Tokenize(text)
	out := make([]string, 0, len(found))
	for _, sent := range found {
		if trimmed := strings.TrimSpace(sent.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Chunk groups sentences into consecutive chunks of size sentences; the last chunk may be
// shorter. A size of zero keeps all sentences in one chunk.
func Chunk(sents []string, size int) [][]string {
	if len(sents) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]string{sents}
	}
	chunks := make([][]string, 0, (len(sents)+size-1)/size)
	for begin := 0; begin < len(sents); begin += size {
		end := begin + size
		if end > len(sents) {
			end = len(sents)
		}
		chunks = append(chunks, sents[begin:end])
	}
	return chunks
}
