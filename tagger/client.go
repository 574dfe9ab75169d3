package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const DefaultBatchSize = 10

const (
	ProtocolHTTP   = "http"
	ProtocolStream = "stream"
)

type Config struct {
	Protocol     string        `envconfig:"TAGGER_PROTOCOL" default:"http"`
	URL          string        `envconfig:"TAGGER_URL" default:"http://www.kbresearch.nl/frogger/"`
	StreamAddr   string        `envconfig:"TAGGER_STREAM_ADDR" default:"localhost:4096"`
	Timeout      time.Duration `envconfig:"TAGGER_TIMEOUT" default:"120s"`
	BatchSize    int           `envconfig:"TAGGER_BATCH_SIZE" default:"10"`
	RetryPolicy  string        `envconfig:"TAGGER_RETRY_POLICY" default:"abandon"`
	MaxAttempts  int           `envconfig:"TAGGER_MAX_ATTEMPTS" default:"3"`
	Backoff      time.Duration `envconfig:"TAGGER_BACKOFF" default:"10s"`
	RateLimit    float64       `envconfig:"TAGGER_RATE_LIMIT" default:"0"`
	CacheEnabled bool          `envconfig:"TAGGER_CACHE_ENABLED" default:"false"`
	CacheTTL     time.Duration `envconfig:"TAGGER_CACHE_TTL" default:"168h"`
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// ChunkError reports a chunk that was given up on. The run continues without it.
type ChunkError struct {
	Source string
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s for (part of): %s", e.Err, e.Source)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Client tags chunks of sentences in batches against a Service.
type Client struct {
	service   Service
	policy    RetryPolicy
	batchSize int
	sleep     SleepFunc
	fdlLogger zerolog.Logger
}

func NewClient(service Service, policy RetryPolicy, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{
		service:   service,
		policy:    policy,
		batchSize: batchSize,
		sleep:     sleepContext,
		fdlLogger: logger.NewLogger("Tagger client"),
	}
}

// New builds a client from config. cache may be nil.
func New(config Config, cache Cache) (*Client, error) {
	var service Service
	switch config.Protocol {
	case ProtocolHTTP:
		service = NewHTTPService(config.URL, config.Timeout, config.RateLimit)
	case ProtocolStream:
		service = &StreamService{Addr: config.StreamAddr, Timeout: config.Timeout}
	default:
		return nil, fmt.Errorf("%w: unknown tagger protocol %q", types.ErrInvalidConfig, config.Protocol)
	}
	if config.CacheEnabled && cache != nil {
		service = NewCachedService(service, cache, config.CacheTTL, CacheLockTTL(config.Timeout))
	}
	policy, err := NewRetryPolicy(config.RetryPolicy, config.MaxAttempts, config.Backoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	return NewClient(service, policy, config.BatchSize), nil
}

// WithSleep replaces the backoff sleep.
func (c *Client) WithSleep(sleep SleepFunc) *Client {
	c.sleep = sleep
	return c
}

// Tag annotates the sentences of one chunk, batchSize sentences per request. A failing chunk
// yields a *ChunkError; only context cancellation is returned as a plain error.
func (c *Client) Tag(ctx context.Context, source string, sentences []string) ([]types.Token, error) {
	tagLogger := c.fdlLogger.With().Str("source", source).Logger()
	var tokens []types.Token
	remaining := sentences
	for len(remaining) > 0 {
		batchSize := c.batchSize
		if batchSize > len(remaining) {
			batchSize = len(remaining)
		}

		attempt := 0
		for {
			batch := strings.Join(remaining[:batchSize], " ")
			batchTokens, err := c.tagBatch(ctx, batch)
			if err == nil {
				tokens = append(tokens, batchTokens...)
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, ErrInvalidResponse) {
				tagLogger.Error().Err(err).Msg("Tagger data invalid, skipping document")
				return nil, &ChunkError{Source: source, Err: err}
			}

			attempt++
			decision := c.policy.Next(attempt, batchSize, err)
			if decision.Abandon {
				tagLogger.Error().Err(err).Int("attempts", attempt).Msg("Tagger data not found, skipping document")
				return nil, &ChunkError{Source: source, Err: err}
			}
			if decision.BatchSize != batchSize {
				tagLogger.Warn().Int("batch_size", decision.BatchSize).Msg("Reducing batch size")
			}
			tagLogger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", decision.Wait).Msg("Tagger data not found, retrying")
			if err := c.sleep(ctx, decision.Wait); err != nil {
				return nil, err
			}
			batchSize = decision.BatchSize
		}
		remaining = remaining[batchSize:]
	}
	return tokens, nil
}

func (c *Client) tagBatch(ctx context.Context, batch string) ([]types.Token, error) {
	data, err := c.service.Annotate(ctx, batch)
	if err != nil {
		return nil, err
	}
	return ParseResponse(data)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
