package types

// ScoredTerm is a term key with an aggregate score.
type ScoredTerm struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

type Keyword ScoredTerm

// Frame is the ranked context of one keyword.
type Frame struct {
	Keyword Keyword      `json:"keyword"`
	Context []ScoredTerm `json:"frame"`
}

// TopicTerm is one entry of a fitted topic.
type TopicTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

type Topic []TopicTerm
