package corpus

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KBNLresearch/frame-generator/tagger"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeTagger struct{}

func (fakeTagger) Tag(_ context.Context, source string, sentences []string) ([]types.Token, error) {
	var tokens []types.Token
	for _, sentence := range sentences {
		if strings.Contains(sentence, "broken") {
			return nil, &tagger.ChunkError{Source: source, Err: tagger.ErrInvalidResponse}
		}
		for _, word := range strings.Fields(sentence) {
			tokens = append(tokens, types.NewToken(strings.ToLower(word), "N"))
		}
	}
	return tokens, nil
}

func writeInput(t *testing.T, files map[string]string) string {
	root := t.TempDir()
	for _, dir := range []string{RegexDir, DocsDir, StopDir} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func TestBuildUntagged(t *testing.T) {
	root := writeInput(t, map[string]string{
		"regex/rules.tsv": "kat\thond\n",
		"stop/stop.txt":   "De\nhet",
		"docs/a.txt":      "Alpha kat gamma",
	})
	result, err := NewBuilder(0, false, nil, 1).Build(context.Background(), root)
	require.NoError(t, err)
	require.Empty(t, result.Diagnostics)
	require.Equal(t, 1, result.Corpus.Len())
	require.Equal(t, []string{"alpha", "hond", "gamma"}, result.Corpus.Document(0).Keys())
	require.True(t, result.Corpus.IsStopWord("de"))
	require.Len(t, result.Corpus.Rules(), 1)
}

func TestBuildDropsFailedChunk(t *testing.T) {
	root := writeInput(t, map[string]string{
		"docs/a.txt": "alpha beta gamma",
		"docs/b.txt": "broken delta",
		"docs/c.txt": "epsilon zeta",
	})
	result, err := NewBuilder(0, true, fakeTagger{}, 2).Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 2, result.Corpus.Len())
	require.Equal(t, "a.txt", result.Corpus.Document(0).Source)
	require.Equal(t, "c.txt", result.Corpus.Document(1).Source)
	require.Equal(t, []string{"alpha/N", "beta/N", "gamma/N"}, result.Corpus.Document(0).Keys())
	require.Len(t, result.Diagnostics, 1)
	require.Equal(t, "b.txt", result.Diagnostics[0].Source)
	require.Contains(t, result.Diagnostics[0].Message, "b.txt")
}

func TestBuildJSONDocumentsLast(t *testing.T) {
	root := writeInput(t, map[string]string{
		"docs/a.json": `{"docs": [["fox/N", "dog/N"], []]}`,
		"docs/b.txt":  "alpha beta",
	})
	result, err := NewBuilder(0, false, nil, 1).Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 2, result.Corpus.Len())
	require.Equal(t, "b.txt", result.Corpus.Document(0).Source)
	require.Equal(t, []types.Token{{Text: "fox", Tag: "N"}, {Text: "dog", Tag: "N"}}, result.Corpus.Document(1).Tokens)
}

func TestBuildMalformedFilesAreDiagnostics(t *testing.T) {
	root := writeInput(t, map[string]string{
		"docs/a.xml":  "<doc><p>unclosed</doc>",
		"docs/b.json": "{not json",
		"docs/c.xml":  "<doc><p>alpha</p><p>beta</p></doc>",
	})
	result, err := NewBuilder(0, false, nil, 1).Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, result.Corpus.Len())
	require.Equal(t, []string{"alpha", "beta"}, result.Corpus.Document(0).Keys())
	require.Len(t, result.Diagnostics, 2)
	require.Equal(t, "a.xml", result.Diagnostics[0].Source)
	require.Equal(t, "b.json", result.Diagnostics[1].Source)
}

func TestBuildChunksDutchSentences(t *testing.T) {
	root := writeInput(t, map[string]string{
		"docs/a.txt": "Mevr. Jansen kwam gisteren. Zie blz. 12 voor meer.",
	})
	builder := NewBuilder(1, false, nil, 1)
	result, err := builder.Build(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 2, result.Corpus.Len())
}

func TestBuildUnsupportedLanguage(t *testing.T) {
	root := writeInput(t, map[string]string{"docs/a.txt": "alpha"})
	builder := NewBuilder(0, false, nil, 1)
	builder.Language = "klingon"
	_, err := builder.Build(context.Background(), root)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestBuildMissingDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DocsDir), 0o755))
	_, err := NewBuilder(0, false, nil, 1).Build(context.Background(), root)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestBuildMalformedRegex(t *testing.T) {
	root := writeInput(t, map[string]string{
		"regex/rules.txt": "(unclosed\tx\n",
		"docs/a.txt":      "alpha",
	})
	_, err := NewBuilder(0, false, nil, 1).Build(context.Background(), root)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestBuildEmptyCorpus(t *testing.T) {
	root := writeInput(t, map[string]string{"docs/a.txt": "broken"})
	result, err := NewBuilder(0, true, fakeTagger{}, 1).Build(context.Background(), root)
	require.Nil(t, result)
	require.True(t, errors.Is(err, types.ErrEmptyCorpus))
}

func TestBuildTaggingWithoutTagger(t *testing.T) {
	root := writeInput(t, map[string]string{"docs/a.txt": "alpha"})
	_, err := NewBuilder(0, true, nil, 1).Build(context.Background(), root)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("a\tb\n\nonly-one-field\nx\ty\tz\n \t c\n(\\d+) gulden\t\\1 euro\r\n", "rules.tsv")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Equal(t, "b", rules[0].Replacement)
	require.Equal(t, "rules.tsv:1", rules[0].Source)
	require.Equal(t, "10 euro", rules[1].Apply("10 gulden"))
}

func TestDecodeFallsBackToLatin1(t *testing.T) {
	text, err := Decode([]byte("caf\xe9"), DefaultDecodings)
	require.NoError(t, err)
	require.Equal(t, "café", text)

	text, err = Decode([]byte("café"), DefaultDecodings)
	require.NoError(t, err)
	require.Equal(t, "café", text)
}

func TestDecodeNoCandidate(t *testing.T) {
	_, err := Decode([]byte("caf\xe9"), []Decoding{UTF8})
	require.ErrorIs(t, err, types.ErrNoDecoding)
}

func TestStripXML(t *testing.T) {
	text, err := StripXML(`<?xml version="1.0" encoding="ISO-8859-1"?><a>x<b>y</b></a>`)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, strings.Fields(text))

	_, err = StripXML("<a><b></a>")
	require.Error(t, err)
}

func TestDocsRoundTrip(t *testing.T) {
	docs := []types.Document{
		{Source: "a.txt", Tokens: []types.Token{{Text: "kat", Tag: "N"}, {Text: "loopt", Tag: "WW"}}},
		{Source: "b.txt", Tokens: []types.Token{{Text: "hond", Tag: "N"}}},
	}
	corpus, err := types.NewCorpus(docs, nil, nil, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeDocs(&buf, corpus))
	require.JSONEq(t, `{"docs": [["kat/N", "loopt/WW"], ["hond/N"]]}`, buf.String())

	reloaded, err := DecodeDocs(buf.Bytes(), "docs.json")
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	for i := range docs {
		if diff := cmp.Diff(docs[i].Tokens, reloaded[i].Tokens); diff != "" {
			t.Errorf("document %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestVocabularyTerms(t *testing.T) {
	docs := []types.Document{{Source: "a", Tokens: []types.Token{
		{Text: "de", Tag: "LID"},
		{Text: "kat", Tag: "N"},
		{Text: "van", Tag: "VZ"},
		{Text: "niet", Tag: "BW"},
		{Text: "ook", Tag: "BW"},
		{Text: "zo", Tag: "BW"},
		{Text: "...", Tag: "LET"},
	}}}
	corpus, err := types.NewCorpus(docs, types.NewStopWordSet("niet"), nil, true)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"kat/N", "ook/BW"}}, VocabularyTerms(corpus))
}

func TestPruneThresholds(t *testing.T) {
	noBelow, noAbove, _ := PruneThresholds(10)
	require.Equal(t, 1, noBelow)
	require.Equal(t, 1.0, noAbove)
	noBelow, noAbove, keep := PruneThresholds(11)
	require.Equal(t, 2, noBelow)
	require.Equal(t, 0.95, noAbove)
	require.Equal(t, 100000, keep)
}

func TestAcceptTerm(t *testing.T) {
	stop := types.NewStopWordSet("over")
	require.True(t, AcceptTerm(types.Token{Text: "fox"}, stop, nil))
	require.False(t, AcceptTerm(types.Token{Text: "ox"}, stop, nil))
	require.False(t, AcceptTerm(types.Token{Text: "over"}, stop, nil))
	require.True(t, AcceptTerm(types.Token{Text: "één"}, stop, nil))
	require.False(t, AcceptTerm(types.Token{Text: "fox", Tag: "WW"}, stop, TagSet([]string{"N"})))
	require.True(t, AcceptTerm(types.Token{Text: "fox", Tag: "N"}, stop, TagSet([]string{"N"})))
}

func TestHasExtension(t *testing.T) {
	require.True(t, HasExtension("DOC.TXT", DocExtensions))
	require.True(t, HasExtension("rules.Tsv", RegexExtensions))
	require.False(t, HasExtension("scan.pdf", DocExtensions))
	require.False(t, HasExtension("txt", StopExtensions))
}
