package frames

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/KBNLresearch/frame-generator/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const decayRate = 0.25

// Decay is the proximity weight of a context term at distance tokens from a keyword occurrence.
func Decay(distance int) float64 {
	return math.Exp(-decayRate * float64(distance))
}

// Extractor builds the frame of every keyword from the context windows of its occurrences.
type Extractor struct {
	Direction   string
	WindowSize  int
	FrameSize   int
	Tags        []string
	MaxParallel int
	fdlLogger   zerolog.Logger
}

func NewExtractor(direction string, windowSize int, frameSize int, tags []string) *Extractor {
	return &Extractor{
		Direction:   direction,
		WindowSize:  windowSize,
		FrameSize:   frameSize,
		Tags:        tags,
		MaxParallel: 1,
		fdlLogger:   logger.NewLogger("Frame extractor"),
	}
}

// Window returns the positions around i, clipped to [0, length).
func Window(i int, length int, direction string, size int) []int {
	var positions []int
	if direction != types.WindowRight {
		for p := i - size; p < i; p++ {
			if p >= 0 && p < length {
				positions = append(positions, p)
			}
		}
	}
	if direction != types.WindowLeft {
		for p := i + 1; p <= i+size; p++ {
			if p >= 0 && p < length {
				positions = append(positions, p)
			}
		}
	}
	return positions
}

// Extract returns one frame per keyword, in keyword order.
func (extractor *Extractor) Extract(ctx context.Context, keywords []types.Keyword, corp *types.Corpus) ([]types.Frame, error) {
	frames := make([]types.Frame, len(keywords))
	maxParallel := extractor.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	sem := semaphore.NewWeighted(int64(maxParallel))
	tags := corpus.TagSet(extractor.Tags)
	docs := corp.Documents()

	var wg sync.WaitGroup
	for i, keyword := range keywords {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, keyword types.Keyword) {
			defer wg.Done()
			defer sem.Release(1)
			frames[i] = types.Frame{
				Keyword: keyword,
				Context: extractor.frame(keyword.Term, docs, corp.StopWords(), tags),
			}
		}(i, keyword)
	}
	wg.Wait()
	extractor.fdlLogger.Info().Int("count", len(frames)).Msg("Frames generated")
	return frames, nil
}

func (extractor *Extractor) frame(term string, docs []types.Document, stopWords types.StopWordSet, tags map[string]struct{}) []types.ScoredTerm {
	order := []string{}
	totals := map[string]float64{}
	for _, doc := range docs {
		keys := doc.Keys()
		for i, key := range keys {
			if key != term {
				continue
			}
			for _, p := range Window(i, len(keys), extractor.Direction, extractor.WindowSize) {
				candidate := keys[p]
				if candidate == term || !corpus.AcceptTerm(doc.Tokens[p], stopWords, tags) {
					continue
				}
				if _, ok := totals[candidate]; !ok {
					order = append(order, candidate)
				}
				totals[candidate] += Decay(utils.AbsInt(i - p))
			}
		}
	}

	ranked := make([]types.ScoredTerm, len(order))
	for i, candidate := range order {
		ranked[i] = types.ScoredTerm{Term: candidate, Score: totals[candidate]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if extractor.FrameSize >= 0 && len(ranked) > extractor.FrameSize {
		ranked = ranked[:extractor.FrameSize]
	}
	return ranked
}
