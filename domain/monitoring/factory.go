package monitoring

import (
	"time"

	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

// DefaultMonitoringControllerFactory reports uptime from the moment it was built,
// which SetupCoreDomain does once at startup.
type DefaultMonitoringControllerFactory struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startedAt time.Time
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:        db,
		logger:    &log.Logger{Logger: logger.With("component", "monitoring")},
		cache:     cache,
		startedAt: time.Now(),
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.startedAt)
}
