// Package ratelimit limits requests per client key, in memory for a single instance or
// in Redis when several instances share one budget.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultKeyPrefix namespaces limiter keys in Redis.
const DefaultKeyPrefix = "ratelimit:"

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter defines the strategy interface for rate limiting
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	// IsLimited records one request for key and reports whether it is over budget.
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // nil selects the in-memory limiter
	Logger   Logger
	// KeyPrefix separates limiters sharing one Redis, e.g. "ratelimit:submit:".
	KeyPrefix string
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.KeyPrefix, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}

// ========================================
// In-memory token bucket
// ========================================

// idleSweepEvery is how many calls pass between sweeps of idle keys.
const idleSweepEvery = 1024

type InMemoryRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	calls    uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInMemoryRateLimiter allows a burst of requests per key, refilled evenly over window.
func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		k = &keyedLimiter{limiter: rate.NewLimiter(rate.Every(r.window/time.Duration(max(r.requests, 1))), r.requests)}
		r.limiters[key] = k
	}
	k.lastSeen = now

	r.calls++
	if r.calls%idleSweepEvery == 0 {
		r.sweep(now.Add(-2 * r.window))
	}

	return !k.limiter.AllowN(now, 1), nil
}

// sweep drops keys idle since before cutoff. Callers hold mu.
func (r *InMemoryRateLimiter) sweep(cutoff time.Time) {
	for key, k := range r.limiters {
		if k.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// ========================================
// Redis sliding window
// ========================================

// slidingWindow trims the sorted set to the window, then admits the request when the
// remaining count is below the limit. Returns 1 when limited.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window * 2)

return 0
`)

type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

// IsLimited returns an error rather than allowing the request when Redis fails; the
// caller decides whether to fail open.
func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	fullKey := r.fullKey(key)

	limited, err := slidingWindow.Run(ctx, r.client, []string{fullKey},
		time.Now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		uuid.NewString(),
	).Int()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return limited == 1, nil
}

// fullKey moves callers' "ratelimit:<client>" keys under this limiter's prefix.
func (r *RedisRateLimiter) fullKey(key string) string {
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + strings.TrimPrefix(key, DefaultKeyPrefix)
}

// Close is a no-op: the Redis client belongs to the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}
