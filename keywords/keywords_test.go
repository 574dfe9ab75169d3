package keywords

import (
	"math"
	"testing"

	"github.com/KBNLresearch/frame-generator/model"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/stretchr/testify/require"
)

func ids(t *testing.T, dict *model.Dictionary, terms ...string) []int {
	result := make([]int, len(terms))
	for i, term := range terms {
		id, ok := dict.ID(term)
		require.True(t, ok, term)
		result[i] = id
	}
	return result
}

func TestTfIdfTiesKeepFirstSeenOrder(t *testing.T) {
	dict := model.NewDictionary([][]string{{"run", "jump"}})
	id := ids(t, dict, "run", "jump")
	source := TfIdfSource{
		Dictionary: dict,
		Weights:    [][]model.WeightedEntry{{{ID: id[0], Weight: 5}, {ID: id[1], Weight: 5}}},
	}
	keywords, err := NewScorer(10, nil).Score(source)
	require.NoError(t, err)
	require.Equal(t, []types.Keyword{{Term: "run", Score: 5}, {Term: "jump", Score: 5}}, keywords)
}

func TestTfIdfSumsAcrossDocuments(t *testing.T) {
	dict := model.NewDictionary([][]string{{"kat/N", "loopt/WW", "hond/N"}})
	id := ids(t, dict, "kat/N", "loopt/WW", "hond/N")
	source := TfIdfSource{
		Dictionary: dict,
		Weights: [][]model.WeightedEntry{
			{{ID: id[0], Weight: 0.5}, {ID: id[1], Weight: 0.9}},
			{{ID: id[0], Weight: 0.6}, {ID: id[2], Weight: 0.2}},
		},
	}
	keywords, err := NewScorer(2, nil).Score(source)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	require.Equal(t, "kat/N", keywords[0].Term)
	require.InDelta(t, 1.1, keywords[0].Score, 1e-9)
	require.Equal(t, "loopt/WW", keywords[1].Term)
}

func TestTagFilterAppliedBeforeTruncation(t *testing.T) {
	dict := model.NewDictionary([][]string{{"kat/N", "loopt/WW", "hond/N"}})
	id := ids(t, dict, "kat/N", "loopt/WW", "hond/N")
	source := TfIdfSource{
		Dictionary: dict,
		Weights:    [][]model.WeightedEntry{{{ID: id[1], Weight: 0.9}, {ID: id[0], Weight: 0.5}, {ID: id[2], Weight: 0.2}}},
	}
	keywords, err := NewScorer(2, []string{"N"}).Score(source)
	require.NoError(t, err)
	require.Equal(t, []types.Keyword{{Term: "kat/N", Score: 0.5}, {Term: "hond/N", Score: 0.2}}, keywords)
}

func TestTopicSource(t *testing.T) {
	corpus := [][]string{{"kat", "kat", "hond"}, {"kat", "hond", "vis"}}
	dict := model.NewDictionary(corpus)
	freqs := model.TermFrequencies(dict.Corpus(corpus), dict.Len())
	source := TopicSource{
		Dictionary: dict,
		Topics: []types.Topic{
			{{Term: "hond", Weight: 0.4}, {Term: "kat", Weight: 0.3}},
			{{Term: "kat", Weight: 0.2}, {Term: "vis", Weight: 0.1}},
		},
		Frequencies: freqs,
	}
	keywords, err := NewScorer(10, nil).Score(source)
	require.NoError(t, err)
	require.Len(t, keywords, 3)
	require.Equal(t, "kat", keywords[0].Term)
	require.InDelta(t, 0.5*math.Log(3), keywords[0].Score, 1e-9)
	require.Equal(t, "hond", keywords[1].Term)
	require.InDelta(t, 0.4*math.Log(2), keywords[1].Score, 1e-9)
	require.Equal(t, "vis", keywords[2].Term)
	require.Equal(t, 0.0, keywords[2].Score)
}

func TestTopicSourceUnknownTerm(t *testing.T) {
	corpus := [][]string{{"kat"}}
	dict := model.NewDictionary(corpus)
	source := TopicSource{
		Dictionary:  dict,
		Topics:      []types.Topic{{{Term: "paard", Weight: 0.4}}},
		Frequencies: model.TermFrequencies(dict.Corpus(corpus), dict.Len()),
	}
	_, err := NewScorer(10, nil).Score(source)
	require.ErrorIs(t, err, types.ErrUnknownTerm)
}

func TestCountLargerThanAvailable(t *testing.T) {
	dict := model.NewDictionary([][]string{{"kat"}})
	source := TfIdfSource{Dictionary: dict, Weights: [][]model.WeightedEntry{{{ID: 0, Weight: 1}}}}
	keywords, err := NewScorer(50, nil).Score(source)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
}
