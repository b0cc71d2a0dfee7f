package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvBool returns defaultValue when the variable is unset or not a valid bool.
func GetEnvBool(key string, defaultValue bool) bool {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// GetEnvPositiveInt returns defaultValue unless the variable parses to an int > 0.
func GetEnvPositiveInt(key string, defaultValue int) int {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}

	return n
}

// GetEnvDuration parses a time.ParseDuration string. Negative values fall back to
// defaultValue; zero is kept so a feature can be switched off.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := GetEnvTrimmed(key)
	if v == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultValue
	}

	return d
}
