// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the subset of *redis.Client the limiter needs.
type RedisClient interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// allowScript counts one event and returns the new count. The TTL is set
// in the same call whenever the key has none, so a counter can never
// outlive its window.
var allowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter is a fixed-window KeyLimiter shared by every instance that
// talks to the same Redis. Each window is one counter key with a TTL.
type RedisLimiter struct {
	client   RedisClient
	prefix   string
	limit    int64
	duration time.Duration
}

// NewRedis returns a limiter storing counters under prefix.
func NewRedis(client RedisClient, prefix string, limit int, duration time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		limit:    int64(limit),
		duration: duration,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := allowScript.Run(ctx, l.client, []string{l.prefix + key}, l.duration.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit: %w", err)
	}
	return n <= l.limit, nil
}

// Reset clears the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
