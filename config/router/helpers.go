package router

import (
	"errors"
	"net/http"

	"github.com/akeren/form-history-api/internal/log"
	apperrors "github.com/akeren/form-history-api/pkg/errors"
)

const (
	NotFoundKey         = "not_found"
	MethodNotAllowedKey = "method_not_allowed"
	RequestTimeoutKey   = "request_timeout"
	PayloadTooLargeKey  = "payload_too_large"
	RateLimitKey        = "rate_limit"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

func OKResult(data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
	}
}

// ErrorResult renders a single message under key.
func ErrorResult(statusCode int, key, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Errors:     map[string][]string{key: {message}},
	}
}

func NotFoundResult(message string) *ServiceResult {
	return ErrorResult(http.StatusNotFound, NotFoundKey, message)
}

func TooManyRequestsResult() *ServiceResult {
	return ErrorResult(http.StatusTooManyRequests, RateLimitKey, "Too Many Requests")
}

func RequestTimeoutResult() *ServiceResult {
	return ErrorResult(http.StatusRequestTimeout, RequestTimeoutKey, "Request timeout")
}

func PayloadTooLargeResult() *ServiceResult {
	return ErrorResult(http.StatusRequestEntityTooLarge, PayloadTooLargeKey, "Request payload too large")
}

// ServerErrorResult is the opaque 500 body. Debug appends the cause and location.
func ServerErrorResult(debug bool, err error) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Errors:     map[string][]string{apperrors.ServerErrorKey: apperrors.ServerErrorMessages(err, debug)},
	}
}

// FailureResult maps use case or repository errors. The first error decides the status.
func FailureResult(debug bool, errs ...error) *ServiceResult {
	if len(errs) == 0 {
		return ServerErrorResult(debug, nil)
	}

	return &ServiceResult{
		StatusCode: apperrors.HTTPStatusCode(errs[0]),
		Errors:     apperrors.ErrorMap(errs, debug),
	}
}

// BindingErrorResult maps a failed gin binding onto the 422 envelope, keyed by wire field name.
func BindingErrorResult(err error, model any) *ServiceResult {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return PayloadTooLargeResult()
	}

	validationErrors := apperrors.FormatValidationErrors(err, model)
	if len(validationErrors) == 0 {
		return ErrorResult(http.StatusUnprocessableEntity, apperrors.BodyFieldKey, "Invalid request body")
	}

	return &ServiceResult{
		StatusCode: http.StatusUnprocessableEntity,
		Errors:     apperrors.GroupByField(validationErrors),
	}
}
