package factory

import (
	"context"
	"time"

	"github.com/akeren/form-history-api/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Scope keeps this limiter's Redis keys apart from the router's global limiter.
	Scope  string
	Logger ratelimit.Logger
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory uses Redis when cache exposes a client and falls back
// to the in-memory limiter otherwise.
func NewDefaultRateLimiterFactory(cfg RateLimitConfig, cache Cache) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(RedisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	prefix := ratelimit.DefaultKeyPrefix
	if cfg.Scope != "" {
		prefix += cfg.Scope + ":"
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests:  cfg.Requests,
			Window:    cfg.Window,
			Redis:     redisClient,
			Logger:    cfg.Logger,
			KeyPrefix: prefix,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}
