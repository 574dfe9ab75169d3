package types

import (
	"fmt"
	"regexp"
	"strings"
)

var backReference = regexp.MustCompile(`\\(\d+)`)

// RegexRule is a case-insensitive substitution. Rules are applied in load order.
type RegexRule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Source      string
}

// NewRegexRule compiles pattern case-insensitively. Backreferences written as \1 in the
// replacement are rewritten to the ${1} form; other dollar signs are literal.
func NewRegexRule(pattern string, replacement string, source string) (RegexRule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return RegexRule{}, fmt.Errorf("%w: regex %q from %s: %v", ErrInvalidConfig, pattern, source, err)
	}
	replacement = strings.ReplaceAll(replacement, "$", "$$")
	replacement = backReference.ReplaceAllString(replacement, "$${$1}")
	return RegexRule{
		Pattern:     re,
		Replacement: replacement,
		Source:      source,
	}, nil
}

func (rule RegexRule) Apply(text string) string {
	return rule.Pattern.ReplaceAllString(text, rule.Replacement)
}
