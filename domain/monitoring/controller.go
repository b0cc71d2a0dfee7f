package monitoring

import (
	"context"
	"time"

	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/factory"
	"github.com/akeren/form-history-api/pkg/ratelimit"
	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

type PongResponse struct {
	Message string `json:"message"`
}

type HealthStatus struct {
	Database int `json:"database"` // 1 = healthy, 0 = unhealthy
	Cache    int `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Uptime   int `json:"uptime"`   // seconds
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, startedAt time.Time) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		startTime: startedAt,
	}

	return router.NewVersionedRESTController(
		"MonitoringController",
		"api/v1",
		"/health",
		func(routerService *router.RouterService, controller *router.RESTController) {
			statusLimiter := createStatusRateLimiter(logger, cache)

			routerService.AddGetHandler(controller, nil, "", func(c *router.RequestContext) *router.ServiceResult {
				return router.OKResult(PongResponse{Message: "pong"})
			})

			routerService.AddGetHandler(controller, statusLimiter, "status", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthStatus(routerService, c)
			})
		},
	)
}

func createStatusRateLimiter(logger *log.Logger, cache Cache) ratelimit.RateLimiter {
	const statusRequestsPerMinute = 10

	return factory.NewDefaultRateLimiterFactory(factory.RateLimitConfig{
		Requests: statusRequestsPerMinute,
		Window:   time.Minute,
		Scope:    "health",
		Logger:   logger,
	}, cache).CreateRateLimiter()
}

func (ctrl *MonitoringController) healthStatus(
	routerService *router.RouterService,
	c *router.RequestContext,
) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health status endpoint called")

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	return router.OKResult(ctrl.performHealthChecks(ctx, logger))
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	return status
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		logger.Info("Cache not configured, cache health check skipped")
		return
	}

	if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		logger.Info("Cache health check passed")
	} else {
		logger.Error("Cache health check failed")
	}
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *HealthStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		logger.Info("Database health check passed")
	} else {
		logger.Error("Database health check failed")
	}
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
