package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what a handler returns. A result with Errors renders the error
// envelope, otherwise Data is written as the response body.
type ServiceResult struct {
	StatusCode int
	Data       any
	Errors     map[string][]string
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) ToJSON() any {
	if len(result.Errors) > 0 {
		return gin.H{
			"success": false,
			"error":   result.Errors,
		}
	}
	return result.Data
}
