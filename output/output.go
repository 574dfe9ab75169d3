package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/types"
)

const (
	DocsFile     = "docs.json"
	KeywordsFile = "keywords.csv"
	FramesFile   = "frames.csv"
	TopicsFile   = "topics.csv"
	SettingsFile = "settings.csv"
	LogFile      = "log.txt"
)

const byteOrderMark = "\ufeff"

func newWriter(w io.Writer) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	return writer
}

func flush(writer *csv.Writer) error {
	writer.Flush()
	return writer.Error()
}

// FormatScore prints a score with the shortest representation that reads back exactly, always
// with a decimal point or exponent.
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// WriteKeywords writes one term<TAB>score row per keyword, preceded by a byte order mark.
func WriteKeywords(w io.Writer, keywords []types.Keyword) error {
	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return err
	}
	writer := newWriter(w)
	for _, keyword := range keywords {
		if err := writer.Write([]string{keyword.Term, FormatScore(keyword.Score)}); err != nil {
			return err
		}
	}
	return flush(writer)
}

// WriteFrames writes two rows per frame: the keyword and its context terms, then the keyword
// score and the context scores.
func WriteFrames(w io.Writer, frames []types.Frame) error {
	writer := newWriter(w)
	for _, frame := range frames {
		terms := make([]string, 0, len(frame.Context)+1)
		scores := make([]string, 0, len(frame.Context)+1)
		terms = append(terms, frame.Keyword.Term)
		scores = append(scores, FormatScore(frame.Keyword.Score))
		for _, term := range frame.Context {
			terms = append(terms, term.Term)
			scores = append(scores, FormatScore(term.Score))
		}
		if err := writer.Write(terms); err != nil {
			return err
		}
		if err := writer.Write(scores); err != nil {
			return err
		}
	}
	return flush(writer)
}

// WriteTopics writes two rows per topic: its terms, then their weights.
func WriteTopics(w io.Writer, topics []types.Topic) error {
	writer := newWriter(w)
	for _, topic := range topics {
		terms := make([]string, len(topic))
		weights := make([]string, len(topic))
		for i, term := range topic {
			terms[i] = term.Term
			weights[i] = FormatScore(term.Weight)
		}
		if err := writer.Write(terms); err != nil {
			return err
		}
		if err := writer.Write(weights); err != nil {
			return err
		}
	}
	return flush(writer)
}

func WriteSettings(w io.Writer, settings types.Settings) error {
	writer := newWriter(w)
	for _, row := range settings.SettingsRows() {
		if err := writer.Write(row[:]); err != nil {
			return err
		}
	}
	return flush(writer)
}

// WriteLog writes one line per diagnostic.
func WriteLog(w io.Writer, diagnostics []corpus.Diagnostic) error {
	for _, diagnostic := range diagnostics {
		if _, err := fmt.Fprintln(w, diagnostic.Message); err != nil {
			return err
		}
	}
	return nil
}

func WriteDocs(w io.Writer, corp *types.Corpus) error {
	return corpus.EncodeDocs(w, corp)
}
