// Package cache is the Redis-backed read-through cache port. Its one
// consumer is users.CachedStore, which shields the worker pool's per-delivery
// GetByID lookups from repeat queries during retry bursts.
package cache

import (
	"context"
)

// Cache stores msgpack-serialized values, optionally lz4-compressed. Get
// deserializes into data and reports a miss as (nil, nil).
type Cache interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, data interface{}, options Options) (bool, error)
	Get(ctx context.Context, key string, data interface{}) (interface{}, error)
	Delete(ctx context.Context, key string) (bool, error)
}
