package tagger

import (
	"context"
	"time"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/utils"
	"github.com/rs/zerolog"
)

const (
	cachePrefix     = "tagger"
	cacheLockMargin = 5 * time.Second
)

// Cache stores raw tagger responses. redis.Client implements it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Locker is implemented by caches that can serialize concurrent lookups of one key.
type Locker interface {
	LockFor(ctx context.Context, key string, ttl time.Duration) (func() error, error)
}

// CacheLockTTL is how long a cache fill holds its key: one annotate call of at most timeout.
func CacheLockTTL(timeout time.Duration) time.Duration {
	return timeout + cacheLockMargin
}

// CachedService keeps responses of the wrapped Service keyed by the batch text. Only responses
// that parse are stored; cache failures fall through to the service.
type CachedService struct {
	service   Service
	cache     Cache
	ttl       time.Duration
	lockTTL   time.Duration
	fdlLogger zerolog.Logger
}

// NewCachedService caches responses for ttl. A fill holds the key lock for lockTTL, which must
// outlast the wrapped service's timeout.
func NewCachedService(service Service, cache Cache, ttl time.Duration, lockTTL time.Duration) *CachedService {
	return &CachedService{
		service:   service,
		cache:     cache,
		ttl:       ttl,
		lockTTL:   lockTTL,
		fdlLogger: logger.NewLogger("Tagger cache"),
	}
}

func (s *CachedService) Annotate(ctx context.Context, text string) (string, error) {
	key := utils.HashKey(cachePrefix, text)
	if data, ok := s.lookup(ctx, key); ok {
		return data, nil
	}

	if locker, ok := s.cache.(Locker); ok {
		release, err := locker.LockFor(ctx, key, s.lockTTL)
		if err != nil {
			s.fdlLogger.Warn().Err(err).Str("key", key).Msg("Unable to lock cache key")
		} else {
			defer func() {
				if err := release(); err != nil {
					s.fdlLogger.Warn().Err(err).Str("key", key).Msg("Unable to release cache key")
				}
			}()
			if data, ok := s.lookup(ctx, key); ok {
				return data, nil
			}
		}
	}

	data, err := s.service.Annotate(ctx, text)
	if err != nil {
		return "", err
	}
	if _, err := ParseResponse(data); err != nil {
		return data, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.fdlLogger.Warn().Err(err).Str("key", key).Msg("Unable to store tagger response")
	}
	return data, nil
}

func (s *CachedService) lookup(ctx context.Context, key string) (string, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.fdlLogger.Warn().Err(err).Str("key", key).Msg("Unable to read tagger cache")
		return "", false
	}
	return data, ok
}
