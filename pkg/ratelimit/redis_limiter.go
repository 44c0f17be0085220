package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow counts requests per window and reports the milliseconds left
// in the window when the count is exhausted.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then ttl = tonumber(ARGV[2]) end
	return {0, ttl}
end
return {1, 0}
`)

// RedisLimiter shares limits across instances through Redis. Each client may
// send Burst requests per Burst/RequestsPerSecond window.
type RedisLimiter struct {
	client *redis.Client
	limit  Limit
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit Limit, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, prefix: prefix + "ratelimit:"}
}

func (r *RedisLimiter) window() time.Duration {
	seconds := float64(r.limit.Burst) / r.limit.RequestsPerSecond
	return time.Duration(math.Ceil(seconds*1000)) * time.Millisecond
}

func (r *RedisLimiter) Allow(ctx context.Context, clientID string) (bool, time.Duration, error) {
	if !r.limit.Enabled() {
		return true, 0, nil
	}
	res, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + clientID},
		r.limit.Burst, r.window().Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script result %v", res)
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	return false, time.Duration(res[1]) * time.Millisecond, nil
}
