package types

import "strings"

// StopWordSet holds lowercase stop words. Membership only.
type StopWordSet map[string]struct{}

func NewStopWordSet(words ...string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

func (set StopWordSet) Contains(word string) bool {
	_, ok := set[word]
	return ok
}

func (set StopWordSet) Len() int {
	return len(set)
}
