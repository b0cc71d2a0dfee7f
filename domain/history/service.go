package history

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/akeren/form-history-api/internal/log"
	apperrors "github.com/akeren/form-history-api/pkg/errors"
	"github.com/akeren/form-history-api/pkg/result"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// HistoryPageSize is the fixed number of items returned by GetHistory.
	HistoryPageSize = 10

	DefaultMaxSubmitDelay = 3 * time.Second
)

type HistoryService interface {
	// Submit waits a random delay, validates the names and stores the entry. Field
	// violations come back in the Result; storage failures come back as the error.
	Submit(ctx context.Context, req *SubmitFormRequest) (result.Result[SubmitFormResponse], error)

	// GetHistory returns at most HistoryPageSize entries with prior counts and the total match count.
	GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error)

	// GetUniqueNames lists distinct first and last names for autocomplete.
	GetUniqueNames(ctx context.Context) (*UniqueNamesResponse, error)
}

type ServiceConfig struct {
	// MaxSubmitDelay bounds the random submit delay. Zero disables it.
	MaxSubmitDelay time.Duration
	// Registerer receives form_submissions_total. Nil disables the metric.
	Registerer prometheus.Registerer
}

type historyService struct {
	logger     *log.Logger
	repository FormEntryRepository
	maxDelay   time.Duration
	pickDelay  func(max time.Duration) time.Duration
	metrics    *submissionMetrics
}

func NewHistoryService(logger *log.Logger, repository FormEntryRepository, cfg *ServiceConfig) HistoryService {
	if cfg == nil {
		cfg = &ServiceConfig{MaxSubmitDelay: DefaultMaxSubmitDelay}
	}

	return &historyService{
		logger:     logger,
		repository: repository,
		maxDelay:   cfg.MaxSubmitDelay,
		pickDelay:  rand.N[time.Duration],
		metrics:    newSubmissionMetrics(cfg.Registerer),
	}
}

// wait suspends for a uniform random duration in [0, maxDelay) or until ctx ends.
func (s *historyService) wait(ctx context.Context) error {
	if s.maxDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.pickDelay(s.maxDelay))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *historyService) Submit(ctx context.Context, req *SubmitFormRequest) (result.Result[SubmitFormResponse], error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Submit received empty request")
		return result.Result[SubmitFormResponse]{}, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	if err := s.wait(ctx); err != nil {
		logger.Warn("Submit abandoned during processing delay", "error", err)
		return result.Result[SubmitFormResponse]{}, err
	}

	fieldErrors := ValidateNames(req.FirstName, req.LastName)

	date, err := ParseDate(req.Date)
	if err != nil {
		dateErr := apperrors.NewUnprocessableEntityError("Invalid date format, expected YYYY-MM-DD", err)
		dateErr.Field = FieldDate
		fieldErrors = append(fieldErrors, dateErr)
	}

	if len(fieldErrors) > 0 {
		logger.Info("Submit rejected", "errors", len(fieldErrors))
		s.metrics.observe(outcomeRejected)
		return result.Fail[SubmitFormResponse](fieldErrors...), nil
	}

	err = s.repository.WithinTransaction(ctx, func(tx FormEntryRepository) error {
		_, err := tx.CreateEntry(ctx, date, req.FirstName, req.LastName)
		return err
	})
	if err != nil {
		logger.Error("Failed to store form entry", "error", err)
		s.metrics.observe(outcomeFailed)
		return result.Result[SubmitFormResponse]{}, err
	}

	s.metrics.observe(outcomeAccepted)
	return result.Ok(SubmitFormResponse{Success: true}), nil
}

func (s *historyService) GetHistory(ctx context.Context, req *GetHistoryRequest) (*GetHistoryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("GetHistory received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	upper, err := ParseDate(req.Date)
	if err != nil {
		dateErr := apperrors.NewUnprocessableEntityError("Invalid date format, expected YYYY-MM-DD", err)
		dateErr.Field = FieldDate
		return nil, dateErr
	}

	filter := ToFilter(req, upper)

	rows, err := s.repository.QueryFilteredWithCounts(ctx, filter, HistoryPageSize)
	if err != nil {
		logger.Error("Failed to query form history", "error", err)
		return nil, err
	}

	total, err := s.repository.CountFiltered(ctx, filter)
	if err != nil {
		logger.Error("Failed to count form history", "error", err)
		return nil, err
	}

	return ToGetHistoryResponse(rows, total), nil
}

func (s *historyService) GetUniqueNames(ctx context.Context) (*UniqueNamesResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	firstNames, err := s.repository.UniqueFirstNames(ctx)
	if err != nil {
		logger.Error("Failed to list unique first names", "error", err)
		return nil, err
	}

	lastNames, err := s.repository.UniqueLastNames(ctx)
	if err != nil {
		logger.Error("Failed to list unique last names", "error", err)
		return nil, err
	}

	return &UniqueNamesResponse{FirstNames: firstNames, LastNames: lastNames}, nil
}
