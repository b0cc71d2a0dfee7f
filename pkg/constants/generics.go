package constants

import "time"

// ServiceName identifies this service in logs, traces and the OTel resource.
const ServiceName = "form-history-api"

// DateFormat is the calendar date layout used on the wire (YYYY-MM-DD).
const DateFormat = "2006-01-02"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// DefaultSubmitRequestsPerMinute caps form submissions per client
	DefaultSubmitRequestsPerMinute = 30
)

const (
	DefaultRequestTimeout = 30 * time.Second
	// DefaultSubmitMaxDelay bounds the random processing delay on submit. It must stay
	// below DefaultRequestTimeout.
	DefaultSubmitMaxDelay = 3 * time.Second
)

// Database pool defaults
const (
	DefaultDBMaxIdleConns    = 10
	DefaultDBMaxOpenConns    = 100
	DefaultDBConnMaxLifetime = time.Minute
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}
