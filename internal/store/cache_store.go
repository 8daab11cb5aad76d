package store

import (
	"context"
	"encoding/json"
	"time"
)

// CacheStore is a keyed TTL byte store in front of the external APIs.
// Backend failures on Get/Set/Delete are swallowed by implementations so
// that cache unavailability degrades to always-fetch behavior.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// GetOrFetch returns the cached value for key, or invokes fetch on a miss
// and stores the result for ttl. Fetch errors propagate to the caller and
// never populate the cache. The returned bool reports a cache hit.
//
// Concurrent misses may both invoke fetch and both write; last write wins.
// All writers compute an equivalent snapshot, so this is an accepted
// inefficiency rather than a correctness problem.
func GetOrFetch[T any](
	ctx context.Context,
	cache CacheStore,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
) (T, bool, error) {
	var value T
	if b, ok := cache.Get(ctx, key); ok {
		if err := json.Unmarshal(b, &value); err == nil {
			return value, true, nil
		}
		// undecodable entry is treated as a miss and overwritten below
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, false, err
	}

	if b, err := json.Marshal(value); err == nil {
		cache.Set(ctx, key, b, ttl)
	}
	return value, false, nil
}
