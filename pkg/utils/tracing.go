package utils

import "github.com/akeren/form-history-api/pkg/constants"

// IsTracingEnabled reports OTEL_TRACES_ENABLED. Tracing is opt-in.
func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

// OTelServiceName is OTEL_SERVICE_NAME, defaulting to the API's own name.
func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", constants.ServiceName)
}
