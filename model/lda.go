package model

import (
	"errors"
	"sort"

	"github.com/KBNLresearch/frame-generator/types"
	"github.com/james-bowman/nlp"
	"github.com/james-bowman/sparse"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultIterations = 200
	DefaultBeta       = 0.01
	DefaultSeed       = 1
)

var (
	ErrNoTerms     = errors.New("lda: empty vocabulary")
	ErrNoDocuments = errors.New("lda: empty corpus")
)

// LDA is a latent Dirichlet allocation topic model backed by nlp's SCVB0 estimator.
type LDA struct {
	Topics     int
	Alpha      float64
	Beta       float64
	Iterations int
	Seed       int64

	dict       *Dictionary
	topicTerms mat.Matrix
}

func NewLDA(topics int) *LDA {
	return &LDA{
		Topics:     topics,
		Alpha:      1 / float64(topics),
		Beta:       DefaultBeta,
		Iterations: DefaultIterations,
		Seed:       DefaultSeed,
	}
}

// TermDocumentMatrix lays bows out as a terms by documents count matrix.
func TermDocumentMatrix(bows []Bow, numTerms int) *sparse.CSC {
	dok := sparse.NewDOK(numTerms, len(bows))
	for d, bow := range bows {
		for _, entry := range bow {
			dok.Set(entry.ID, d, float64(entry.Count))
		}
	}
	return dok.ToCSC()
}

// Fit estimates the topic over term distributions of the corpus. Fitting runs on a single
// goroutine so that a fixed Seed reproduces the same topics.
func (lda *LDA) Fit(bows []Bow, dict *Dictionary) error {
	numTerms := dict.Len()
	if numTerms == 0 {
		return ErrNoTerms
	}
	if len(bows) == 0 {
		return ErrNoDocuments
	}
	if lda.Topics < 1 {
		return errors.New("lda: topic count must be positive")
	}

	estimator := nlp.NewLatentDirichletAllocation(lda.Topics)
	estimator.Iterations = lda.Iterations
	estimator.Alpha = lda.Alpha
	estimator.Eta = lda.Beta
	estimator.Processes = 1
	estimator.Rnd = rand.New(rand.NewSource(uint64(lda.Seed)))
	if _, err := estimator.FitTransform(TermDocumentMatrix(bows, numTerms)); err != nil {
		return err
	}

	lda.dict = dict
	lda.topicTerms = estimator.Components()
	return nil
}

// ShowTopics returns the numWords most probable terms of every topic, most probable first.
func (lda *LDA) ShowTopics(numWords int) []types.Topic {
	if lda.topicTerms == nil {
		return nil
	}
	numTerms := lda.dict.Len()
	if numWords > numTerms || numWords <= 0 {
		numWords = numTerms
	}
	topics := make([]types.Topic, lda.Topics)
	for z := 0; z < lda.Topics; z++ {
		row := mat.Row(nil, z, lda.topicTerms)
		ids := make([]int, numTerms)
		for id := range ids {
			ids[id] = id
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return row[ids[i]] > row[ids[j]]
		})
		topic := make(types.Topic, numWords)
		for i, id := range ids[:numWords] {
			topic[i] = types.TopicTerm{Term: lda.dict.Token(id), Weight: row[id]}
		}
		topics[z] = topic
	}
	return topics
}
