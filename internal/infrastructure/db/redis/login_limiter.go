package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-service/internal/core/ports"
)

// tokenBucket refills `refill` tokens every `interval_ms` up to `capacity`
// and takes one token per call. State lives in a hash that expires when idle.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_ms')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
	tokens = capacity
	last = now_ms
end

local elapsed = math.max(0, now_ms - last)
local steps = math.floor(elapsed / interval_ms)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	last = last + steps * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_ms = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, retry_ms }
`)

// LimiterConfig configures the login token bucket.
type LimiterConfig struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	Prefix         string
}

// LoginLimiter throttles login attempts per key (usually the client IP).
type LoginLimiter struct {
	client *redis.Client
	cfg    LimiterConfig
	now    func() time.Time
}

func NewLoginLimiter(client *redis.Client, cfg LimiterConfig) *LoginLimiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.RefillTokens <= 0 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = 6 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit:login"
	}
	return &LoginLimiter{client: client, cfg: cfg, now: time.Now}
}

// Allow takes one token for key.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	// idle buckets disappear once they would be full again
	ttl := int64(l.cfg.RefillInterval/time.Second)*int64(l.cfg.Capacity/l.cfg.RefillTokens+1) + 1

	vals, err := tokenBucket.Run(ctx, l.client, []string{l.cfg.Prefix + ":" + key},
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		ttl,
	).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return ports.RateDecision{}, fmt.Errorf("rate limit script: unexpected result length %d", len(vals))
	}

	return ports.RateDecision{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
		Limit:      l.cfg.Capacity,
	}, nil
}
