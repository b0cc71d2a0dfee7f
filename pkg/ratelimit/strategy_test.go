package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateLimiter_IsPerKey(t *testing.T) {
	ctx := context.Background()
	limiter := NewInMemoryRateLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		limited, err := limiter.IsLimited(ctx, "a")
		require.NoError(t, err)
		assert.False(t, limited)
	}

	limited, _ := limiter.IsLimited(ctx, "a")
	assert.True(t, limited)

	limited, _ = limiter.IsLimited(ctx, "b")
	assert.False(t, limited, "other keys keep their own budget")
}

func TestInMemoryRateLimiter_Refills(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewInMemoryRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.IsLimited(ctx, "a")
	limiter.IsLimited(ctx, "a")
	limited, _ := limiter.IsLimited(ctx, "a")
	require.True(t, limited)

	// One token every 30s.
	now = now.Add(30 * time.Second)
	limited, _ = limiter.IsLimited(ctx, "a")
	assert.False(t, limited)
}

func TestInMemoryRateLimiter_SweepsIdleKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewInMemoryRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }
	limiter.IsLimited(context.Background(), "stale")

	limiter.sweep(now.Add(time.Second))

	assert.Empty(t, limiter.limiters)
}

func TestNewRateLimiter_InMemoryWithoutRedis(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{Requests: 5, Window: time.Minute})

	require.IsType(t, &InMemoryRateLimiter{}, limiter)

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 5, requests)
	assert.Equal(t, time.Minute, window)
}

func TestRedisRateLimiter_FullKeyIsScoped(t *testing.T) {
	global := NewRedisRateLimiter(nil, 1, time.Minute, "", nil)
	submit := NewRedisRateLimiter(nil, 1, time.Minute, "ratelimit:submit:", nil)

	assert.Equal(t, "ratelimit:10.0.0.1", global.fullKey("ratelimit:10.0.0.1"))
	assert.Equal(t, "ratelimit:submit:10.0.0.1", submit.fullKey("ratelimit:10.0.0.1"))
	assert.Equal(t, "ratelimit:submit:10.0.0.1", submit.fullKey("ratelimit:submit:10.0.0.1"))
}
