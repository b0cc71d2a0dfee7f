package domain

import (
	"github.com/akeren/form-history-api/config"
	"github.com/akeren/form-history-api/domain/history"
	"github.com/akeren/form-history-api/domain/monitoring"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	// A nil config.Cache must stay a nil interface downstream.
	var cache history.Cache
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, cache).CreateController())
	appConfig.RouterService.MountController(history.NewHistoryServiceFactory(appConfig.DB, appConfig.Logger, cache, &history.ControllerConfig{
		MaxSubmitDelay:          appConfig.Config.SubmitMaxDelay,
		SubmitRequestsPerMinute: appConfig.Config.SubmitRequestsPerMinute,
	}).CreateController())
}
