package pipeline

import (
	"context"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/frames"
	"github.com/KBNLresearch/frame-generator/keywords"
	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/model"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/rs/zerolog"
)

// Params configures one generation run.
type Params struct {
	Settings types.Settings
	InputDir string
	// Tagger is required when Settings.PosTag is set.
	Tagger         corpus.Tagger
	IngestParallel int
	// Language selects the sentence segmentation model; empty means Dutch.
	Language      string
	FrameParallel int
	LDAIterations int
	LDASeed       int64
}

// Generate ingests the input directory and produces topics, keywords or frames depending on the
// generation type.
func Generate(ctx context.Context, params Params) (*Result, error) {
	fdlLogger := logger.NewLogger("Generator")
	errLogger := fdlLogger.With().Caller().Logger()
	settings := params.Settings
	if err := settings.Validate(); err != nil {
		errLogger.Err(err).Interface("settings", settings).Msg("Invalid settings")
		return nil, err
	}
	fdlLogger.Info().Interface("settings", settings).Msg("Starting generation (see settings in 'settings' field)")

	builder := corpus.NewBuilder(settings.DocLength, settings.PosTag, params.Tagger, params.IngestParallel)
	builder.Language = params.Language
	ingest, err := builder.Build(ctx, params.InputDir)
	if err != nil {
		errLogger.Err(err).Str("input_dir", params.InputDir).Msg("Failed to build corpus")
		return nil, err
	}
	result := &Result{
		Settings:    settings,
		Corpus:      ingest.Corpus,
		Diagnostics: ingest.Diagnostics,
	}

	fdlLogger.Info().Msg("Generating dictionary")
	terms := corpus.VocabularyTerms(ingest.Corpus)
	dict := model.NewDictionary(terms)
	dict.FilterExtremes(corpus.PruneThresholds(ingest.Corpus.Len()))
	fdlLogger.Info().Int("count", dict.Len()).Msg("Number of unique tokens in dictionary")
	bows := dict.Corpus(terms)

	if settings.GenerationType == types.GenerateTopics {
		if result.Topics, err = fitTopics(params, bows, dict, fdlLogger); err != nil {
			return nil, err
		}
		return result, nil
	}

	var source keywords.ScoreSource
	if settings.KeywordModel == types.KeywordModelTfIdf {
		fdlLogger.Info().Msg("Generating tf-idf model")
		tfidf := model.NewTfIdf(bows, dict.Len())
		source = keywords.TfIdfSource{Dictionary: dict, Weights: tfidf.TransformCorpus(bows)}
	} else {
		if result.Topics, err = fitTopics(params, bows, dict, fdlLogger); err != nil {
			return nil, err
		}
		source = keywords.TopicSource{
			Dictionary:  dict,
			Topics:      result.Topics,
			Frequencies: model.TermFrequencies(bows, dict.Len()),
		}
	}

	fdlLogger.Info().Msg("Generating keywords")
	scorer := keywords.NewScorer(settings.KeywordCount, settings.KeywordTags)
	if result.Keywords, err = scorer.Score(source); err != nil {
		errLogger.Err(err).Msg("Failed to score keywords")
		return nil, err
	}
	if settings.GenerationType == types.GenerateKeywords {
		return result, nil
	}

	fdlLogger.Info().Msg("Generating frames")
	extractor := frames.NewExtractor(settings.Direction(), settings.WindowSize, settings.FrameSize, settings.FrameTags)
	if params.FrameParallel > 0 {
		extractor.MaxParallel = params.FrameParallel
	}
	if result.Frames, err = extractor.Extract(ctx, result.Keywords, ingest.Corpus); err != nil {
		return nil, err
	}
	return result, nil
}

func fitTopics(params Params, bows []model.Bow, dict *model.Dictionary, fdlLogger zerolog.Logger) ([]types.Topic, error) {
	fdlLogger.Info().Int("topics", params.Settings.TopicCount).Msg("Generating LDA model")
	lda := model.NewLDA(params.Settings.TopicCount)
	if params.LDAIterations > 0 {
		lda.Iterations = params.LDAIterations
	}
	if params.LDASeed != 0 {
		lda.Seed = params.LDASeed
	}
	if err := lda.Fit(bows, dict); err != nil {
		fdlLogger.Error().Err(err).Msg("Failed to fit LDA model")
		return nil, err
	}
	return lda.ShowTopics(params.Settings.TopicSize), nil
}
