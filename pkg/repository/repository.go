// Package repository provides the generic gorm-backed CRUD primitives shared by domain
// repositories, guarded by a storage circuit breaker.
package repository

import (
	"context"
	"errors"

	"github.com/akeren/form-history-api/internal/log"
	"github.com/akeren/form-history-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/form-history-api/pkg/errors"
	"gorm.io/gorm"
)

// StorageUnavailableMessage is returned while the storage breaker is open.
const StorageUnavailableMessage = "storage unavailable"

type Repository[T any] interface {
	// Create inserts entity; hooks on T run as usual.
	Create(ctx context.Context, entity *T) error
	// FindByID returns a NOT_FOUND AppError when no row has the id.
	FindByID(ctx context.Context, id any) (*T, error)
	Update(ctx context.Context, id any, updates map[string]any) error
	Delete(ctx context.Context, id any) error
}

type GormRepository[T any] struct {
	db       *gorm.DB
	breaker  circuitbreaker.CircuitBreaker
	resource string
}

func NewGormRepository[T any](db *gorm.DB, breaker circuitbreaker.CircuitBreaker, resource string) *GormRepository[T] {
	return &GormRepository[T]{db: db, breaker: breaker, resource: resource}
}

// WithDB returns a copy bound to db, typically a transaction handle.
func (r *GormRepository[T]) WithDB(db *gorm.DB) *GormRepository[T] {
	return &GormRepository[T]{db: db, breaker: r.breaker, resource: r.resource}
}

func (r *GormRepository[T]) Create(ctx context.Context, entity *T) error {
	return Guard(r.breaker, func() error {
		if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
			if IsDuplicateKey(err) {
				return apperrors.NewConflictError(r.resource+" already exists", err)
			}
			return apperrors.NewDatabaseError("unable to create "+r.resource, err)
		}
		return nil
	})
}

func (r *GormRepository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	var entity T

	err := Guard(r.breaker, func() error {
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFoundError(r.resource+" not found", err)
			}
			return apperrors.NewDatabaseError("failed to fetch "+r.resource, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

func (r *GormRepository[T]) Update(ctx context.Context, id any, updates map[string]any) error {
	if len(updates) == 0 {
		return apperrors.NewInvalidRequestError("no fields to update", nil)
	}

	return Guard(r.breaker, func() error {
		result := r.db.WithContext(ctx).
			Model(new(T)).
			Where("id = ?", id).
			Updates(updates)

		if result.Error != nil {
			if IsDuplicateKey(result.Error) {
				return apperrors.NewConflictError(r.resource+" already exists", result.Error)
			}
			return apperrors.NewDatabaseError("unable to update "+r.resource, result.Error)
		}

		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError(r.resource+" not found", nil)
		}

		return nil
	})
}

func (r *GormRepository[T]) Delete(ctx context.Context, id any) error {
	return Guard(r.breaker, func() error {
		result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))

		if result.Error != nil {
			return apperrors.NewDatabaseError("unable to delete "+r.resource, result.Error)
		}

		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError(r.resource+" not found", nil)
		}

		return nil
	})
}

// Guard runs fn through breaker. An open breaker fails fast with a DATABASE_ERROR.
func Guard(breaker circuitbreaker.CircuitBreaker, fn func() error) error {
	if breaker == nil {
		return fn()
	}

	err := breaker.Call(fn)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return apperrors.NewDatabaseError(StorageUnavailableMessage, err)
	}
	return err
}

// NewStorageBreaker builds the breaker used around database calls. Only storage
// failures count; not-found, conflicts and cancelled requests do not.
func NewStorageBreaker(logger *log.Logger, cfg *circuitbreaker.Config) circuitbreaker.CircuitBreaker {
	if cfg == nil {
		cfg = circuitbreaker.DefaultConfig()
	}
	if cfg.Name == "" {
		cfg.Name = "storage"
	}

	cfg.IsFailure = func(err error) bool {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return apperrors.GetErrorType(err) == apperrors.ErrorTypeDatabaseError
	}

	if logger != nil {
		cfg.OnStateChange = func(name string, from, to circuitbreaker.CircuitState) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}
	}

	return circuitbreaker.NewCircuitBreaker(cfg)
}

func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}

// AsDatabaseError keeps AppErrors as they are and wraps anything else.
func AsDatabaseError(message string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return apperrors.NewDatabaseError(message, err)
}
