package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the sign-in limiter.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis is the shared [SignInLimiter] for multi-instance web deployments.
// Attempts live in a sorted set scored by unix-nanosecond timestamp, so the
// window slides exactly like the memory backend's.
type Redis struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedis creates a Redis-backed sign-in limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{redis: client, config: cfg}
}

func signInKey(identifier string) string {
	return "si:" + identifier
}

// Allow checks whether identifier is within the attempt budget.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-r.config.Window).UnixNano()
	rkey := signInKey(key)

	pipe := r.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if card.Val() >= int64(r.config.MaxAttempts) {
		return false, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	pipe = r.redis.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, rkey, r.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return true, nil
}

// Reset clears the attempt history for identifier.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, signInKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
