// Package cachemanager provides the TTL cache used by the insight feed,
// mirroring the request-cache behavior of the dashboard's data hooks.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the caching contract consumed by read-through wrappers.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
