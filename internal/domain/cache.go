package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the port implemented by the Redis adapter.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites any existing value. An expiration of 0 keeps the key forever.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete does not fail for missing keys.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}
