package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRedisStore is the networked cache backend, used when multiple
// dashboard instances share one redis. Expiry is redis-native TTL.
type CacheRedisStore struct {
	client *redis.Client
}

func NewCacheRedisStore(addr string) *CacheRedisStore {
	return &CacheRedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (cs *CacheRedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := cs.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Println("err reading cache key:", err)
		}
		return nil, false
	}
	return b, true
}

func (cs *CacheRedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := cs.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Println("err writing cache key:", err)
	}
}

func (cs *CacheRedisStore) Delete(ctx context.Context, key string) {
	if err := cs.client.Del(ctx, key).Err(); err != nil {
		log.Println("err deleting cache key:", err)
	}
}
