package history

import (
	"github.com/akeren/form-history-api/config/router"
	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/repository"
	"gorm.io/gorm"
)

type HistoryServiceFactory interface {
	CreateService() HistoryService
	CreateController() *router.RESTController
}

type DefaultHistoryServiceFactory struct {
	db     *gorm.DB
	logger *log.Logger
	cache  Cache
	config *ControllerConfig
}

func NewHistoryServiceFactory(db *gorm.DB, logger *log.Logger, cache Cache, cfg *ControllerConfig) HistoryServiceFactory {
	return &DefaultHistoryServiceFactory{
		db:     db,
		logger: logger,
		cache:  cache,
		config: cfg,
	}
}

// CreateService builds a service without metrics, for use outside the HTTP router.
func (f *DefaultHistoryServiceFactory) CreateService() HistoryService {
	repo := NewFormEntryRepository(f.db, repository.NewStorageBreaker(f.logger, nil))

	serviceConfig := &ServiceConfig{MaxSubmitDelay: DefaultMaxSubmitDelay}
	if f.config != nil {
		serviceConfig.MaxSubmitDelay = f.config.MaxSubmitDelay
	}

	return NewHistoryService(f.logger, repo, serviceConfig)
}

func (f *DefaultHistoryServiceFactory) CreateController() *router.RESTController {
	return NewHistoryController(f.db, f.logger, f.cache, f.config)
}
