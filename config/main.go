package config

import (
	"context"
	"time"

	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/internal/models"
	"github.com/akeren/form-history-api/pkg/constants"
	"github.com/akeren/form-history-api/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	// Debug adds error causes and source locations to 500 responses.
	Debug bool
	// SubmitMaxDelay bounds the random delay applied to each submission. Zero disables it.
	SubmitMaxDelay          time.Duration
	SubmitRequestsPerMinute int
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests:       utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:         constants.DefaultRateLimitWindow(),
		RequestTimeout:          constants.DefaultRequestTimeout,
		Debug:                   utils.GetEnvBool("APP_DEBUG", false),
		SubmitMaxDelay:          utils.GetEnvDuration("SUBMIT_MAX_DELAY", constants.DefaultSubmitMaxDelay),
		SubmitRequestsPerMinute: utils.GetEnvPositiveInt("SUBMIT_RATE_LIMIT_REQUESTS", constants.DefaultSubmitRequestsPerMinute),
	}

	if win := utils.GetEnvDuration("RATE_LIMIT_WINDOW", 0); win > 0 {
		config.RateLimitWindow = win
	}

	if timeout := utils.GetEnvDuration("REQUEST_TIMEOUT", 0); timeout > 0 {
		config.RequestTimeout = timeout
	}

	// The request deadline must leave room for the submit delay.
	if config.SubmitMaxDelay >= config.RequestTimeout {
		config.SubmitMaxDelay = config.RequestTimeout / 2
	}

	return config
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	LoadEnvFiles(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, NewDBConfigFromEnv())
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	appConfig := NewAppConfig()
	cache := CacheConfigFromEnv().Connect(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
		Debug:             appConfig.Debug,
	})

	logger.Info("Application configuration loaded successfully",
		"debug", appConfig.Debug,
		"submit_max_delay", appConfig.SubmitMaxDelay.String(),
	)

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, nil
}
