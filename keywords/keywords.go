package keywords

import (
	"fmt"
	"math"
	"sort"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/model"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// ScoreSource is where keyword scores come from: TfIdfSource or TopicSource.
type ScoreSource interface {
	scoreSource()
}

// TfIdfSource sums the tf-idf weight of a term over every document it occurs in.
type TfIdfSource struct {
	Dictionary *model.Dictionary
	Weights    [][]model.WeightedEntry
}

// TopicSource sums the probability of a term over all topics and multiplies the sum by the natural
// log of the term's corpus frequency.
type TopicSource struct {
	Dictionary  *model.Dictionary
	Topics      []types.Topic
	Frequencies *mat.VecDense
}

func (TfIdfSource) scoreSource() {}
func (TopicSource) scoreSource() {}

// Scorer ranks terms into keywords.
type Scorer struct {
	Count     int
	Tags      []string
	fdlLogger zerolog.Logger
}

func NewScorer(count int, tags []string) *Scorer {
	return &Scorer{
		Count:     count,
		Tags:      tags,
		fdlLogger: logger.NewLogger("Keyword scorer"),
	}
}

// scores keeps terms in the order they were first seen.
type scores struct {
	order  []string
	values map[string]float64
}

func newScores() *scores {
	return &scores{values: map[string]float64{}}
}

func (s *scores) add(term string, score float64) {
	if _, ok := s.values[term]; !ok {
		s.order = append(s.order, term)
	}
	s.values[term] += score
}

func (s *scores) ranked() []types.Keyword {
	keywords := make([]types.Keyword, len(s.order))
	for i, term := range s.order {
		keywords[i] = types.Keyword{Term: term, Score: s.values[term]}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})
	return keywords
}

// Score aggregates, ranks, filters by tag and truncates.
func (scorer *Scorer) Score(source ScoreSource) ([]types.Keyword, error) {
	var aggregated *scores
	var err error
	switch src := source.(type) {
	case TfIdfSource:
		aggregated = aggregateTfIdf(src)
	case TopicSource:
		aggregated, err = aggregateTopics(src)
	default:
		return nil, fmt.Errorf("%w: unsupported score source %T", types.ErrInvalidConfig, source)
	}
	if err != nil {
		return nil, err
	}

	keywords := filterTags(aggregated.ranked(), scorer.Tags)
	if scorer.Count >= 0 && len(keywords) > scorer.Count {
		keywords = keywords[:scorer.Count]
	}
	scorer.fdlLogger.Info().Int("count", len(keywords)).Msg("Keywords generated")
	return keywords, nil
}

func aggregateTfIdf(src TfIdfSource) *scores {
	aggregated := newScores()
	for _, doc := range src.Weights {
		for _, entry := range doc {
			aggregated.add(src.Dictionary.Token(entry.ID), entry.Weight)
		}
	}
	return aggregated
}

func aggregateTopics(src TopicSource) (*scores, error) {
	aggregated := newScores()
	for _, topic := range src.Topics {
		for _, term := range topic {
			aggregated.add(term.Term, term.Weight)
		}
	}
	for _, term := range aggregated.order {
		id, ok := src.Dictionary.ID(term)
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownTerm, term)
		}
		aggregated.values[term] *= math.Log(src.Frequencies.AtVec(id))
	}
	return aggregated, nil
}

func filterTags(keywords []types.Keyword, tags []string) []types.Keyword {
	if len(tags) == 0 {
		return keywords
	}
	allowed := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		allowed[tag] = struct{}{}
	}
	filtered := keywords[:0]
	for _, keyword := range keywords {
		if _, ok := allowed[types.ParseToken(keyword.Term).Tag]; ok {
			filtered = append(filtered, keyword)
		}
	}
	return filtered
}
