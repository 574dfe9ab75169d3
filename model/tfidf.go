package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const eps = 1e-12

// WeightedEntry is one term weight of a transformed document.
type WeightedEntry struct {
	ID     int
	Weight float64
}

// TfIdf weights raw term counts by log2(numDocs/df) and normalizes every document to unit length.
type TfIdf struct {
	idfs []float64
}

func NewTfIdf(bows []Bow, numTerms int) *TfIdf {
	dfs := make([]int, numTerms)
	for _, bow := range bows {
		for _, entry := range bow {
			dfs[entry.ID]++
		}
	}
	idfs := make([]float64, numTerms)
	for id, df := range dfs {
		if df > 0 {
			idfs[id] = math.Log2(float64(len(bows)) / float64(df))
		}
	}
	return &TfIdf{idfs: idfs}
}

func (model *TfIdf) Transform(bow Bow) []WeightedEntry {
	entries := make([]WeightedEntry, 0, len(bow))
	for _, entry := range bow {
		idf := model.idfs[entry.ID]
		if math.Abs(idf) <= eps {
			continue
		}
		entries = append(entries, WeightedEntry{ID: entry.ID, Weight: float64(entry.Count) * idf})
	}
	if len(entries) == 0 {
		return entries
	}

	weights := mat.NewVecDense(len(entries), nil)
	for i, entry := range entries {
		weights.SetVec(i, entry.Weight)
	}
	norm := mat.Norm(weights, 2)
	if norm > 0 {
		weights.ScaleVec(1/norm, weights)
	}

	normalized := entries[:0]
	for i, entry := range entries {
		weight := weights.AtVec(i)
		if math.Abs(weight) <= eps {
			continue
		}
		normalized = append(normalized, WeightedEntry{ID: entry.ID, Weight: weight})
	}
	return normalized
}

func (model *TfIdf) TransformCorpus(bows []Bow) [][]WeightedEntry {
	weighted := make([][]WeightedEntry, len(bows))
	for i, bow := range bows {
		weighted[i] = model.Transform(bow)
	}
	return weighted
}
