package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitLoginPrefix is the Redis key prefix for per-IP login buckets.
	rateLimitLoginPrefix = "ratelimit:login:"
	// rateLimitLoginTTL keeps idle buckets around long enough to refill.
	rateLimitLoginTTL = 120 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes a token atomically.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- seconds
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + ((now - last_update) * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// IPRateLimiter is a Redis token bucket keyed by hashed client IP, shared
// by every API instance.
type IPRateLimiter struct {
	cache         *Cache
	ratePerMinute int
	burst         int
}

// NewIPRateLimiter creates a limiter allowing ratePerMinute requests per IP
// with the given burst.
func (c *Cache) NewIPRateLimiter(ratePerMinute, burst int) *IPRateLimiter {
	return &IPRateLimiter{cache: c, ratePerMinute: ratePerMinute, burst: burst}
}

// Allow consumes one token for ip. Redis errors fail open.
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (*RateLimitResult, error) {
	if l.ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(l.burst), ResetAt: time.Now().Add(time.Minute)}, nil
	}

	rate := float64(l.ratePerMinute) / 60.0
	now := time.Now()

	result, err := tokenBucketScript.Run(ctx, l.cache.client,
		[]string{rateLimitLoginPrefix + hashIP(ip)},
		rate, l.burst, now.Unix(), int(rateLimitLoginTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return &RateLimitResult{Allowed: true, Remaining: int64(l.burst), ResetAt: now.Add(time.Minute)}, nil
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}

// hashIP keeps raw client addresses out of Redis.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
