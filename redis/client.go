package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock = func() error

const (
	TaggerDB DB = 0
	JobsDB   DB = 1

	minLockRetries = 20
)

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"FRAMES_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"FRAMES_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"FRAMES_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"FRAMES_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"FRAMES_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"FRAMES_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"FRAMES_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"FRAMES_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"FRAMES_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (*Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return nil, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return &Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}, nil
}

// Wrap builds a Client around an existing connection.
func Wrap(client redis.UniversalClient, lockExpiration time.Duration) *Client {
	return &Client{client: client, lockExpiration: lockExpiration}
}

func CreateClusterClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(cfg.HASentinelSocketTimeout * float32(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// Get returns the stored value and whether the key exists.
func (client *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := client.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (client *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return client.client.Set(ctx, key, value, ttl).Err()
}

func (client *Client) GetDocument(ctx context.Context, key string, doc interface{}) error {
	b, err := client.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, doc)
}

func (client *Client) SaveDocument(ctx context.Context, key string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, key, b, 0).Err()
}

// UpdateDocument loads doc under a lock, applies update and stores the result.
func (client *Client) UpdateDocument(ctx context.Context, key string, doc interface{}, update func() error) (err error) {
	releaseLock, err := client.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()
	if err = client.GetDocument(ctx, key, doc); err != nil {
		return err
	}
	if err = update(); err != nil {
		return err
	}
	return client.SaveDocument(ctx, key, doc)
}

func (client *Client) Lock(ctx context.Context, key string) (ReleaseLock, error) {
	return client.LockFor(ctx, key, client.lockExpiration)
}

// LockFor obtains the lock of key for ttl. Waiters retry every second for at least as long as
// the holder may keep the lock.
func (client *Client) LockFor(ctx context.Context, key string, ttl time.Duration) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	retries := int(ttl / time.Second)
	if retries < minLockRetries {
		retries = minLockRetries
	}
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), retries)
	lockKey := fmt.Sprintf("lock:%s", key)
	lock, err := lockCl.Obtain(ctx, lockKey, ttl, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(context.Background())
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
