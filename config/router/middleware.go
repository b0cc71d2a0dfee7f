package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/ratelimit"
	"github.com/akeren/form-history-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 31536000

	corsAllowHeaders = "Content-Type, Content-Length, Accept, Accept-Encoding, Origin, Cache-Control, X-Requested-With, " + log.CorrelationIDHeader
	corsAllowMethods = "GET, POST, OPTIONS"
)

// middlewareOptions is read from the environment once per router.
type middlewareOptions struct {
	maxBodyBytes   int64
	allowedOrigins []string
	hstsEnabled    bool
	hstsValue      string
}

func loadMiddlewareOptions() middlewareOptions {
	opts := middlewareOptions{
		maxBodyBytes:   defaultMaxBodyBytes,
		allowedOrigins: splitList(utils.GetEnvTrimmed("CORS_ALLOWED_ORIGIN")),
	}

	if n, err := strconv.ParseInt(utils.GetEnvTrimmed("MAX_REQUEST_BODY_BYTES"), 10, 64); err == nil && n > 0 {
		opts.maxBodyBytes = n
	}

	if len(opts.allowedOrigins) == 0 {
		opts.allowedOrigins = []string{DefaultAllowedOrigin}
	}

	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	opts.hstsEnabled = utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod")

	maxAge := int64(defaultHSTSMaxAge)
	if n, err := strconv.ParseInt(utils.GetEnvTrimmed("HSTS_MAX_AGE"), 10, 64); err == nil && n > 0 {
		maxAge = n
	}
	opts.hstsValue = fmt.Sprintf("max-age=%d", maxAge)
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		opts.hstsValue += "; includeSubDomains"
	}

	return opts
}

func (o middlewareOptions) originAllowed(origin string) bool {
	return slices.Contains(o.allowedOrigins, "*") || slices.Contains(o.allowedOrigins, origin)
}

func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func abortWith(c *gin.Context, result *ServiceResult) {
	c.AbortWithStatusJSON(result.StatusCode, result.ToJSON())
}

func (routerService *RouterService) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		GetLogger(c).Error("Recovered from panic", "panic", recovered, "path", c.Request.URL.Path)
		abortWith(c, ServerErrorResult(routerService.IsDebug(), fmt.Errorf("panic: %v", recovered)))
	})
}

func (routerService *RouterService) noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWith(c, NotFoundResult("Route not found"))
	}
}

func (routerService *RouterService) noMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWith(c, ErrorResult(http.StatusMethodNotAllowed, MethodNotAllowedKey, "Method not allowed"))
	}
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := log.ContextWithCorrelationID(c.Request.Context(), c.GetHeader(log.CorrelationIDHeader))
		c.Request = c.Request.WithContext(ctx)
		c.Header(log.CorrelationIDHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		c.Request = c.Request.WithContext(log.ContextWithLogger(ctx, routerService.logger.WithCorrelationID(ctx)))
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	opts := routerService.options

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opts.hstsEnabled && isHTTPS(c) {
			h.Set("Strict-Transport-Security", opts.hstsValue)
		}
		c.Next()
	}
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	limit := routerService.options.maxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			abortWith(c, PayloadTooLargeResult())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// corsMiddleware answers preflights for allowed origins. Disallowed origins get no
// CORS headers and the browser blocks the response.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	opts := routerService.options

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !opts.originAllowed(origin) {
			GetLogger(c).Warn("CORS origin not allowed", "origin", origin)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// timeoutMiddleware puts a deadline on the request context. Handlers run inline since
// gin.Context is not goroutine-safe; the http.Server timeouts bound the rest.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	timeout := routerService.config.RequestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected", "timeout", timeout.String())
			abortWith(c, RequestTimeoutResult())
		}
	}
}

// limiterFor resolves the limiter for a route: handler override, then controller
// override, then the router default.
func (routerService *RouterService) limiterFor(handlerKey string, controller *RESTController) ratelimit.RateLimiter {
	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}
	if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
		return limiter
	}
	return routerService.rateLimiter
}

func setRateLimitHeaders(c *gin.Context, limit int, window time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Window", window.String())
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			// Unmatched routes fall through to NoRoute and NoMethod.
			c.Next()
			return
		}

		handlerKey := routerService.keyForPathAndMethod(route, c.Request.Method)
		controller, found := routerService.handlerToControllerMap[handlerKey]
		if !found || controller == nil {
			GetLogger(c).Error("Handler registered without a controller mapping", "route", route, "method", c.Request.Method)
			abortWith(c, NotFoundResult(fmt.Sprintf("No handler configured at path %s", c.Request.URL.Path)))
			return
		}

		limiter := routerService.limiterFor(handlerKey, controller)
		if limiter == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		setRateLimitHeaders(c, limit, window)

		limited, err := limiter.IsLimited(c.Request.Context(), ratelimit.DefaultKeyPrefix+clientIP)
		if err != nil {
			// Fail open.
			GetLogger(c).Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			GetLogger(c).Warn("Rate limit exceeded", "client_ip", clientIP, "route", route)
			c.Header("Retry-After", strconv.Itoa(max(int(math.Ceil(window.Seconds())), 1)))
			abortWith(c, TooManyRequestsResult())
			return
		}

		c.Next()
	}
}
