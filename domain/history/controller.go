package history

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/factory"
	"github.com/akeren/form-history-api/pkg/ratelimit"
	"github.com/akeren/form-history-api/pkg/repository"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type ControllerConfig struct {
	MaxSubmitDelay time.Duration
	// SubmitRequestsPerMinute caps POST /submit per client. Zero uses the default.
	SubmitRequestsPerMinute int
}

const defaultSubmitRequestsPerMinute = 30

func NewHistoryController(
	db *gorm.DB,
	logger *log.Logger,
	cache Cache,
	cfg *ControllerConfig,
) *router.RESTController {
	if cfg == nil {
		cfg = &ControllerConfig{MaxSubmitDelay: DefaultMaxSubmitDelay}
	}

	return router.NewRESTController(
		"HistoryController",
		"/api",
		func(rs *router.RouterService, c *router.RESTController) {
			breaker := repository.NewStorageBreaker(logger, nil)
			repo := NewFormEntryRepository(db, breaker)
			service := NewHistoryService(logger, repo, &ServiceConfig{
				MaxSubmitDelay: cfg.MaxSubmitDelay,
				Registerer:     rs.MetricsRegisterer(),
			})

			submitLimiter := createSubmitRateLimiter(logger, cache, cfg.SubmitRequestsPerMinute)

			rs.AddPostHandler(c, submitLimiter, "submit", submitFormHandler(rs, service))
			rs.AddGetHandler(c, nil, "history", getHistoryHandler(rs, service))
			rs.AddGetHandler(c, nil, "unique-names", getUniqueNamesHandler(rs, service))
		},
	)
}

func createSubmitRateLimiter(logger *log.Logger, cache Cache, perMinute int) ratelimit.RateLimiter {
	if perMinute <= 0 {
		perMinute = defaultSubmitRequestsPerMinute
	}

	return factory.NewDefaultRateLimiterFactory(factory.RateLimitConfig{
		Requests: perMinute,
		Window:   time.Minute,
		Scope:    "submit",
		Logger:   logger,
	}, cache).CreateRateLimiter()
}

func submitFormHandler(rs *router.RouterService, service HistoryService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req SubmitFormRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Info("Rejected submit payload", "error", err)
			return router.BindingErrorResult(err, &req)
		}

		res, err := service.Submit(ctx.Request.Context(), &req)
		if errors.Is(err, context.DeadlineExceeded) {
			return router.RequestTimeoutResult()
		}
		if err != nil {
			return router.FailureResult(rs.IsDebug(), err)
		}
		if !res.IsOk() {
			return router.FailureResult(rs.IsDebug(), res.Err()...)
		}

		return router.OKResult(res.Value())
	}
}

func getHistoryHandler(rs *router.RouterService, service HistoryService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req GetHistoryRequest

		if err := ctx.ShouldBindQuery(&req); err != nil {
			logger.Info("Rejected history query", "error", err)
			return router.BindingErrorResult(err, &req)
		}

		response, err := service.GetHistory(ctx.Request.Context(), &req)
		if err != nil {
			return router.FailureResult(rs.IsDebug(), err)
		}

		return router.OKResult(response)
	}
}

func getUniqueNamesHandler(rs *router.RouterService, service HistoryService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		response, err := service.GetUniqueNames(ctx.Request.Context())
		if err != nil {
			return router.FailureResult(rs.IsDebug(), err)
		}

		return router.OKResult(response)
	}
}
