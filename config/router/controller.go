package router

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/akeren/form-history-api/pkg/ratelimit"
)

var errNilResult = errors.New("handler returned a nil result")

// joinRoute builds the absolute route for a handler under its controller.
func joinRoute(controller *RESTController, relativePath string) string {
	route := path.Join("/", controller.mountPoint, relativePath)
	if route == "." {
		return "/"
	}
	return route
}

func (routerService *RouterService) keyForPathAndMethod(route, method string) string {
	return method + "-" + route
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: path.Join("/", mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: path.Join("/", version, mountPoint),
		version:    strings.Trim(version, "/"),
		prepare:    prepare,
	}
}

// RateLimitWith applies limiter to every handler of the controller without its own.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	routerService.bindRateLimiter(controller.mountPoint, limiter)
	return controller
}

func (routerService *RouterService) bindRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, exists := routerService.rateLimitOverrides[key]; exists {
		panic(fmt.Sprintf("A rate limiter is already registered for '%s'", key))
	}
	routerService.rateLimitOverrides[key] = limiter
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodGet, controller, limiter, relativePath, handler, middlewares)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodPost, controller, limiter, relativePath, handler, middlewares)
}

// addHandler registers the route with gin and records its owner for rate limiting.
// A second registration of the same method and route panics at mount time.
func (routerService *RouterService) addHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares []MiddlewareFunc,
) {
	route := joinRoute(controller, relativePath)
	key := routerService.keyForPathAndMethod(route, method)

	if owner, exists := routerService.handlerToControllerMap[key]; exists {
		panic(fmt.Sprintf("%s %s is already registered by controller '%s'", method, route, owner.name))
	}
	routerService.handlerToControllerMap[key] = controller
	routerService.bindRateLimiter(key, limiter)

	chain := append(middlewares[:len(middlewares):len(middlewares)], routerService.createHandler(handler))
	routerService.engine.Handle(method, route, chain...)

	controller.handlerCount++
	routerService.logger.Debug("Handler registered", "method", method, "path", route)
}

func (routerService *RouterService) createHandler(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			GetLogger(c).Error("Handler returned a nil result", "path", c.FullPath())
			result = ServerErrorResult(routerService.IsDebug(), errNilResult)
		}

		c.JSON(result.StatusCode, result.ToJSON())
	}
}
