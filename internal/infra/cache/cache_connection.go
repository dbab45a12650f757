package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	cacheConfig "daybreak/config/cache"

	"github.com/redis/go-redis/v9"
)

// New opens the Redis client backing internal/scheduler.TickLock and the
// Cache port below. A plain constructor, not a package-level singleton,
// so it fits do/v2's Provide and tests can build isolated clients.
func New(cfg cacheConfig.CacheConfig) *redis.Client {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.Db,
		PoolSize: cfg.PoolSize,
	}

	if cfg.UseTLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipVerify,
		}
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("failed to connect to redis: %v", err))
	}

	return client
}
