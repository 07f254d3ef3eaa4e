// Package cache stores clustering results and rendered artifacts so repeated
// runs over the same inputs skip the work.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for shared deployments of the HTTP service, and [NullCache] when caching
// is disabled. Keys come from a [Keyer], which hashes the inputs and every
// option that changes the output.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiration.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values.
const (
	TTLOrder    = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
