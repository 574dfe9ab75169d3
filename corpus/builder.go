package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/normalizer"
	"github.com/KBNLresearch/frame-generator/segmenter"
	"github.com/KBNLresearch/frame-generator/tagger"
	"github.com/KBNLresearch/frame-generator/tokenizer"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Tagger annotates the sentences of one chunk. *tagger.Client implements it.
type Tagger interface {
	Tag(ctx context.Context, source string, sentences []string) ([]types.Token, error)
}

// Diagnostic is one recovered ingestion failure.
type Diagnostic struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Message
}

// IngestResult is the corpus together with the failures recovered while building it.
type IngestResult struct {
	Corpus      *types.Corpus
	Diagnostics []Diagnostic
}

type Config struct {
	MaxParallel int    `envconfig:"INGEST_MAX_PARALLEL" default:"1"`
	Language    string `envconfig:"INGEST_LANGUAGE" default:"dutch"`
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// Builder ingests an input directory into a Corpus.
type Builder struct {
	DocLength   int
	PosTag      bool
	Tagger      Tagger
	MaxParallel int
	// Language selects the sentence segmentation model; empty means Dutch.
	Language  string
	fdlLogger zerolog.Logger
}

func NewBuilder(docLength int, posTag bool, tagger Tagger, maxParallel int) *Builder {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Builder{
		DocLength:   docLength,
		PosTag:      posTag,
		Tagger:      tagger,
		MaxParallel: maxParallel,
		fdlLogger:   logger.NewLogger("Corpus builder"),
	}
}

type fileResult struct {
	docs        []types.Document
	diagnostics []Diagnostic
}

// Build reads the regex, stop and docs subdirectories of inputDir. Configuration problems are
// returned before any document is processed; per-file and per-chunk failures become diagnostics.
func (b *Builder) Build(ctx context.Context, inputDir string) (*IngestResult, error) {
	if b.PosTag && b.Tagger == nil {
		return nil, fmt.Errorf("%w: tagging enabled without a tagger", types.ErrInvalidConfig)
	}
	seg, err := segmenter.New(b.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	regexDir, docsDir, stopDir, err := InputDirs(inputDir)
	if err != nil {
		return nil, err
	}

	b.fdlLogger.Info().Msg("Processing regular expressions")
	rules, err := LoadRules(regexDir)
	if err != nil {
		return nil, err
	}
	b.fdlLogger.Info().Int("count", len(rules)).Msg("Number of regular expressions")

	b.fdlLogger.Info().Msg("Processing stop words")
	stopWords, err := LoadStopWords(stopDir)
	if err != nil {
		return nil, err
	}
	b.fdlLogger.Info().Int("count", stopWords.Len()).Msg("Number of stop words")

	textFiles, err := ListFiles(docsDir, textExtensions)
	if err != nil {
		return nil, err
	}
	jsonFiles, err := ListFiles(docsDir, jsonExtensions)
	if err != nil {
		return nil, err
	}

	b.fdlLogger.Info().Msg("Processing documents")
	files := append(textFiles, jsonFiles...)
	results, err := b.processFiles(ctx, files, normalizer.New(rules), seg)
	if err != nil {
		return nil, err
	}

	var docs []types.Document
	var diagnostics []Diagnostic
	for _, result := range results {
		docs = append(docs, result.docs...)
		diagnostics = append(diagnostics, result.diagnostics...)
	}
	b.fdlLogger.Info().Int("count", len(docs)).Msg("Number of (sub)documents")

	corpus, err := types.NewCorpus(docs, stopWords, rules, b.PosTag)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Corpus: corpus, Diagnostics: diagnostics}, nil
}

func (b *Builder) processFiles(ctx context.Context, files []string, norm *normalizer.Normalizer, seg *segmenter.Segmenter) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	sem := semaphore.NewWeighted(int64(b.MaxParallel))
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	for i, path := range files {
		if err := sem.Acquire(ctx, 1); err != nil {
			errOnce.Do(func() { firstErr = err })
			break
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)
			result, err := b.processFile(ctx, path, norm, seg)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			results[i] = result
		}(i, path)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (b *Builder) processFile(ctx context.Context, path string, norm *normalizer.Normalizer, seg *segmenter.Segmenter) (fileResult, error) {
	source := filepath.Base(path)
	fileLogger := b.fdlLogger.With().Str("source", source).Logger()
	fileLogger.Info().Msg("Processing file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}
	if HasExtension(path, jsonExtensions) {
		docs, err := DecodeDocs(data, source)
		if err != nil {
			fileLogger.Error().Err(err).Msg("Could not read document file")
			return failed(source, err), nil
		}
		return fileResult{docs: docs}, nil
	}

	text, err := Decode(data, DefaultDecodings)
	if err != nil {
		fileLogger.Error().Err(err).Msg("Could not decode document file")
		return failed(source, fmt.Errorf("%s: %w", source, err)), nil
	}
	if HasExtension(path, []string{".xml"}) {
		if text, err = StripXML(text); err != nil {
			fileLogger.Error().Err(err).Msg("Could not parse xml document")
			return failed(source, fmt.Errorf("%s: %w", source, err)), nil
		}
	}
	return b.processText(ctx, seg, source, norm.Normalize(text))
}

func (b *Builder) processText(ctx context.Context, seg *segmenter.Segmenter, source string, text string) (fileResult, error) {
	var result fileResult
	for _, chunk := range segmenter.Chunk(seg.Split(text), b.DocLength) {
		tokens, err := b.tokenize(ctx, source, chunk)
		var chunkErr *tagger.ChunkError
		if errors.As(err, &chunkErr) {
			result.diagnostics = append(result.diagnostics, Diagnostic{Source: source, Message: chunkErr.Error()})
			continue
		}
		if err != nil {
			return fileResult{}, err
		}
		if len(tokens) == 0 {
			continue
		}
		result.docs = append(result.docs, types.Document{Source: source, Tokens: tokens})
	}
	return result, nil
}

func (b *Builder) tokenize(ctx context.Context, source string, sentences []string) ([]types.Token, error) {
	if b.PosTag {
		return b.Tagger.Tag(ctx, source, sentences)
	}
	return tokenizer.Tokenize(sentences)
}

func failed(source string, err error) fileResult {
	return fileResult{diagnostics: []Diagnostic{{Source: source, Message: strings.TrimSpace(err.Error())}}}
}
