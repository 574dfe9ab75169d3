package types

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrEmptyCorpus   = errors.New("no documents found")
	ErrUnknownTerm   = errors.New("term not in vocabulary")
	ErrNoDecoding    = errors.New("no candidate encoding could decode input")
)
