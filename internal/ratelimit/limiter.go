package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RequestLimiter is satisfied by *Limiter.
type RequestLimiter interface {
	Allow(ctx context.Context, bucket string, limit int64, window time.Duration) Decision
}

// Limiter counts requests per bucket in a sliding window kept in a Redis
// sorted set. With no Redis client every request is allowed.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// KEYS[1] bucket key
// ARGV[1] window start, ARGV[2] now (both unix micro), ARGV[3] limit, ARGV[4] ttl seconds
// Returns {count, allowed, oldest_score}
var windowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[1])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
    redis.call('ZADD', key, now, ARGV[2] .. '-' .. math.random(1000000))
    count = count + 1
    allowed = 1
end
redis.call('EXPIRE', key, ARGV[4])

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldest_score = now
if oldest[2] then
    oldest_score = tonumber(oldest[2])
end
return {count, allowed, oldest_score}
`)

// Allow records one request in bucket when it fits under limit. Redis
// failures allow the request.
func (l *Limiter) Allow(ctx context.Context, bucket string, limit int64, window time.Duration) Decision {
	now := l.now()
	if l.rdb == nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: now.Add(window)}
	}

	ttl := int64(window.Seconds()) + 1
	res, err := windowScript.Run(ctx, l.rdb, []string{"chatbot:rl:" + bucket},
		now.Add(-window).UnixMicro(), now.UnixMicro(), limit, ttl,
	).Int64Slice()
	if err != nil || len(res) != 3 {
		slog.Warn("rate limit check failed, allowing request", "bucket", bucket, "error", err)
		return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now.Add(window)}
	}

	d := Decision{
		Allowed:   res[1] == 1,
		Limit:     limit,
		Remaining: max(limit-res[0], 0),
		ResetAt:   time.UnixMicro(res[2]).Add(window),
	}
	if !d.Allowed {
		d.RetryAfter = max(d.ResetAt.Sub(now), time.Second)
	}
	return d
}
