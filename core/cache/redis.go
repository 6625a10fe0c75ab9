package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis cache driver. All fields map to
// environment variables for config.Load.
type RedisConfig struct {
	ConnectionURL  string        `env:"CACHE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"CACHE_REDIS_PREFIX" envDefault:"fsroute:"`
	RetryAttempts  int           `env:"CACHE_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"CACHE_REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"CACHE_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Redis is the Redis-backed cache driver. Expiry is delegated to Redis via
// native TTLs; hit/miss/write counters are tracked locally per process.
// Capacity is governed by the Redis server's own eviction policy, so Max in
// Stats is advisory.
type Redis struct {
	client *redis.Client
	prefix string
	max    int

	hits   atomic.Uint64
	misses atomic.Uint64
	writes atomic.Uint64
}

// NewRedis wraps an existing client as a cache store.
func NewRedis(client *redis.Client, keyPrefix string, maxEntries int) *Redis {
	return &Redis{
		client: client,
		prefix: keyPrefix,
		max:    maxEntries,
	}
}

// ConnectRedis creates a Redis store from configuration, verifying
// connectivity with a ping before returning. Transient failures are
// retried with a fixed interval.
func ConnectRedis(ctx context.Context, cfg RedisConfig, maxEntries int) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var pingErr error
	for i := 0; i < attempts; i++ {
		if pingErr = client.Ping(connectCtx).Err(); pingErr == nil {
			return NewRedis(client, cfg.KeyPrefix, maxEntries), nil
		}
		select {
		case <-connectCtx.Done():
			_ = client.Close()
			return nil, fmt.Errorf("cache: redis connect: %w", connectCtx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("cache: redis connect: %w", pingErr)
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		// Transport errors count as misses too; the dispatcher falls back
		// to running the handler.
		r.misses.Add(1)
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		r.misses.Add(1)
		return Entry{}, false
	}
	r.hits.Add(1)
	return entry, true
}

func (r *Redis) Put(ctx context.Context, key string, entry Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.Key = key

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.prefix+key, data, entry.TTL).Err()
	r.writes.Add(1)
}

func (r *Redis) Stats() Stats {
	size := 0
	if n, err := r.client.DBSize(context.Background()).Result(); err == nil {
		size = int(n)
	}
	return Stats{
		Driver:  "redis",
		Enabled: true,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Writes:  r.writes.Load(),
		Size:    size,
		Max:     r.max,
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
