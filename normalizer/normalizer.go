package normalizer

import (
	"strings"

	"github.com/KBNLresearch/frame-generator/types"
)

// UnwantedChars are removed after the user supplied substitutions.
const UnwantedChars = "&/|_:=()[]"

var unwantedReplacer = newUnwantedReplacer()

func newUnwantedReplacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(UnwantedChars))
	for _, ch := range UnwantedChars {
		pairs = append(pairs, string(ch), "")
	}
	return strings.NewReplacer(pairs...)
}

type Normalizer struct {
	rules []types.RegexRule
}

func New(rules []types.RegexRule) *Normalizer {
	ruleList := make([]types.RegexRule, len(rules))
	copy(ruleList, rules)
	return &Normalizer{rules: ruleList}
}

// Normalize applies every rule in order over the whole text, strips unwanted characters and
// collapses whitespace runs (newlines included) to single spaces.
func (n *Normalizer) Normalize(text string) string {
	for _, rule := range n.rules {
		text = rule.Apply(text)
	}
	text = unwantedReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}
