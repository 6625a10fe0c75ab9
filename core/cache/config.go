package cache

import (
	"context"
	"fmt"
)

// Config selects and sizes the cache driver. All fields map to environment
// variables for config.Load.
type Config struct {
	Driver     string `env:"CACHE_DRIVER" envDefault:"memory"`
	MaxEntries int    `env:"CACHE_MAX_ENTRIES" envDefault:"1024"`

	Redis RedisConfig
}

// New builds a Store for the configured driver.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.MaxEntries), nil
	case "redis":
		return ConnectRedis(ctx, cfg.Redis, cfg.MaxEntries)
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
