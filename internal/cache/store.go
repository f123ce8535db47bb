package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"boardwatch/internal/config"
)

// Store is a byte-oriented key/value cache with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the store named by cfg.Driver. An empty driver or "none" disables caching.
func New(cfg config.CacheConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none", "off":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}
