package tagger

import (
	"fmt"
	"time"
)

const (
	PolicyAbandon = "abandon"
	PolicyShrink  = "shrink"
)

// Decision is what the client does after a failed attempt.
type Decision struct {
	Abandon   bool
	BatchSize int
	Wait      time.Duration
}

// RetryPolicy decides how a batch is retried. attempt counts the failed attempts on the
// current batch, starting at 1.
type RetryPolicy interface {
	Next(attempt int, batchSize int, err error) Decision
}

// AbandonChunkPolicy retries the same batch until MaxAttempts attempts failed, then gives up on
// the whole chunk.
type AbandonChunkPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (policy AbandonChunkPolicy) Next(attempt int, batchSize int, _ error) Decision {
	if attempt >= policy.MaxAttempts {
		return Decision{Abandon: true}
	}
	return Decision{BatchSize: batchSize, Wait: policy.Backoff}
}

// ShrinkBatchPolicy retries a batch MaxAttempts times, then retries with a batch one sentence
// smaller. A single sentence batch that keeps failing abandons the chunk.
type ShrinkBatchPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (policy ShrinkBatchPolicy) Next(attempt int, batchSize int, _ error) Decision {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if attempt%maxAttempts != 0 {
		return Decision{BatchSize: batchSize, Wait: policy.Backoff}
	}
	if batchSize <= 1 {
		return Decision{Abandon: true}
	}
	return Decision{BatchSize: batchSize - 1, Wait: policy.Backoff}
}

func NewRetryPolicy(name string, maxAttempts int, backoff time.Duration) (RetryPolicy, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	switch name {
	case PolicyAbandon:
		return AbandonChunkPolicy{MaxAttempts: maxAttempts, Backoff: backoff}, nil
	case PolicyShrink:
		return ShrinkBatchPolicy{MaxAttempts: maxAttempts, Backoff: backoff}, nil
	}
	return nil, fmt.Errorf("unknown retry policy %q", name)
}
