package router

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/ratelimit"
	"github.com/akeren/form-history-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	// DefaultTimeoutDuration is the default request timeout
	DefaultTimeoutDuration = 30 * time.Second

	DefaultAppPort = "8000"

	// DefaultAllowedOrigin is the local frontend dev server.
	DefaultAllowedOrigin = "http://localhost:8080"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine      *gin.Engine
	server      *http.Server
	logger      *log.Logger
	rateLimiter ratelimit.RateLimiter
	redisClient *redis.Client
	registry    *prometheus.Registry
	config      RouterConfig
	options     middlewareOptions

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	// Debug exposes error causes and source locations in 500 responses.
	Debug bool
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	cfg := *routerConfig
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeoutDuration
	}

	rs := &RouterService{
		engine:                 gin.New(),
		logger:                 logger,
		redisClient:            redisClientFrom(cache),
		config:                 cfg,
		options:                loadMiddlewareOptions(),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.engine.Use(rs.recoveryMiddleware())

	if utils.IsTracingEnabled() {
		rs.engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	rs.configureTrustedProxies()
	rs.initRateLimiting()

	// /metrics is registered before the limiter and CORS, so neither applies to it.
	rs.mountMetrics()

	rs.engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	rs.engine.HandleMethodNotAllowed = true
	rs.engine.RedirectTrailingSlash = true
	rs.engine.NoRoute(rs.noRouteHandler())
	rs.engine.NoMethod(rs.noMethodHandler())

	// Server-side timeouts bound request time. Handlers never run in a separate
	// goroutine because gin.Context is not goroutine-safe.
	rs.server = &http.Server{
		Addr:              ":" + DefaultAppPort,
		Handler:           rs.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized")
	return rs
}

func redisClientFrom(cache Cache) *redis.Client {
	if cache == nil {
		return nil
	}
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

// configureTrustedProxies reads TRUSTED_PROXIES. Gin trusts every proxy by default,
// which lets clients spoof ClientIP through X-Forwarded-For, so unset means none.
func (routerService *RouterService) configureTrustedProxies() {
	trustedProxies := parseTrustedProxiesEnv(os.Getenv("TRUSTED_PROXIES"))

	if err := routerService.engine.SetTrustedProxies(trustedProxies); err != nil {
		routerService.logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = routerService.engine.SetTrustedProxies(nil)
		return
	}

	if trustedProxies == nil {
		routerService.logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}
}

// parseTrustedProxiesEnv returns nil for an empty value and every address for "*".
func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	switch s {
	case "":
		return nil
	case "*":
		return []string{"0.0.0.0/0", "::/0"}
	}

	proxies := splitList(s)
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (routerService *RouterService) initRateLimiting() {
	redisClient := routerService.redisClient

	if redisClient != nil {
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.config.RateLimitRequests,
		Window:   routerService.config.RateLimitWindow,
		Redis:    redisClient,
		Logger:   routerService.logger,
	})

	backend := "in-memory"
	if redisClient != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized",
		"backend", backend,
		"requests", routerService.config.RateLimitRequests,
		"window", routerService.config.RateLimitWindow.String())
}

// IsDebug reports whether 500 responses carry diagnostics.
func (routerService *RouterService) IsDebug() bool {
	return routerService.config.Debug
}

// MetricsRegisterer returns the registry served on /metrics. With metrics disabled it
// returns a private registry so collectors can still be registered.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.registry == nil {
		routerService.registry = prometheus.NewRegistry()
	}
	return routerService.registry
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) Cleanup() {
	closeLimiter := func(name string, limiter ratelimit.RateLimiter) {
		if limiter == nil {
			return
		}
		if err := limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "limiter", name, "error", err)
		}
	}

	closeLimiter("default", routerService.rateLimiter)
	for key, limiter := range routerService.rateLimitOverrides {
		closeLimiter(key, limiter)
	}

	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
	)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"handlers", controller.handlerCount,
	)
}

// RunHTTPServer listens on APP_HOST:APP_PORT and blocks until Shutdown.
func (routerService *RouterService) RunHTTPServer() error {
	addr := utils.GetEnvTrimmed("APP_HOST") + ":" + utils.GetEnvTrimmedOrDefault("APP_PORT", DefaultAppPort)
	routerService.server.Addr = addr

	routerService.logger.Info("Starting HTTP server", "addr", addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
