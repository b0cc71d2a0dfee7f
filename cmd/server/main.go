package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/form-history-api/config"
	"github.com/akeren/form-history-api/domain"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/constants"
)

// shutdownGrace covers the longest in-flight submission, including its random delay.
const shutdownGrace = constants.DefaultRequestTimeout

func main() {
	logger := log.NewLoggerWithJSONOutput()

	logger.Info("Form history API starting", "service", constants.ServiceName)

	appConfig, err := config.LoadApplicationConfiguration(logger, hasAutoMigrateFlag(os.Args[1:]))
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	domain.SetupCoreDomain(appConfig)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := appConfig.RouterService.RunHTTPServer(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
		appConfig.Cleanup()
		os.Exit(1)
	case sig := <-quit:
		logger.Info("Shutdown signal received, shutting down gracefully...", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace+5*time.Second)
		defer shutdownCancel()

		if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		} else {
			logger.Info("HTTP server shut down gracefully")
		}
		appConfig.Cleanup()

		logger.Info("Graceful shutdown completed")
	}
}

func hasAutoMigrateFlag(args []string) bool {
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "--auto-migrate", "-m":
			return true
		}
	}
	return false
}
