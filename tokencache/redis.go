package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the token cache.
var ErrRedisUnavailable = errors.New("token cache: redis unavailable")

// Redis is the shared [Cache] backend for multi-instance web deployments.
// Expiry rides on Redis TTLs, so reads after expiry are misses by
// construction, matching the lazy-eviction contract of [Memory].
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis describes the newredis operation and its observable behavior.
//
// prefix namespaces this application's entries; it defaults to "tc".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "tc"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Set describes the set operation and its observable behavior.
func (r *Redis) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// A non-positive TTL means the entry is already expired; storing it
		// would make Has lie until Redis rounds the TTL.
		return r.client.Del(ctx, r.key(key)).Err()
	}
	if err := r.client.Set(ctx, r.key(key), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get describes the get operation and its observable behavior.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return val, true, nil
}

// Has describes the has operation and its observable behavior.
func (r *Redis) Has(ctx context.Context, key string) (bool, error) {
	_, present, err := r.Get(ctx, key)
	return present, err
}

// Clear describes the clear operation and its observable behavior.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
