package config

import (
	"context"
	"os"

	"github.com/akeren/form-history-api/internal/log"
	pkgredis "github.com/akeren/form-history-api/pkg/redis"
	"github.com/akeren/form-history-api/pkg/utils"
)

// Cache is the optional Redis connection. It backs the shared rate limiters and the
// cache health check; form entries always come from the database.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// CacheConfigFromEnv reads REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_POOL_SIZE.
func CacheConfigFromEnv() *CacheConfig {
	return &CacheConfig{
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvOrDefault("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       utils.GetEnvPositiveInt("REDIS_DB", 0),
		PoolSize: utils.GetEnvPositiveInt("REDIS_POOL_SIZE", 10),
	}
}

// Connect returns nil when Redis is not configured or unreachable. Callers then fall
// back to per-instance rate limiting.
func (cc *CacheConfig) Connect(logger *log.Logger) Cache {
	if cc.Host == "" {
		logger.Info("Redis not configured (REDIS_HOST unset); rate limits are per instance")
		return nil
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
		PoolSize: cc.PoolSize,
	})
	if err != nil {
		logger.Error("Redis unavailable; rate limits are per instance", "addr", cc.Host+":"+cc.Port, "error", err)
		return nil
	}

	logger.Info("Redis connected", "addr", cc.Host+":"+cc.Port, "pool_size", cc.PoolSize)
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close Redis", "error", err)
		return
	}
	logger.Info("Redis connection closed")
}
