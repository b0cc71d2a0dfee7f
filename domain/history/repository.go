package history

import (
	"context"
	"time"

	"github.com/akeren/form-history-api/internal/models"
	"github.com/akeren/form-history-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/form-history-api/pkg/errors"
	"github.com/akeren/form-history-api/pkg/repository"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// Filter selects entries dated on or before DateUpperBound. Empty names do not filter.
type Filter struct {
	DateUpperBound time.Time
	FirstName      string
	LastName       string
}

// EntryWithCount pairs an entry with the number of same-name entries dated strictly earlier.
type EntryWithCount struct {
	Entry      models.FormEntry
	PriorCount int64
}

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=history
type FormEntryRepository interface {
	// CreateEntry inserts a new entry with a fresh id and timestamps.
	CreateEntry(ctx context.Context, date time.Time, firstName, lastName string) (*models.FormEntry, error)
	// QueryFiltered returns matching entries ordered by date desc, first_name, last_name.
	QueryFiltered(ctx context.Context, filter Filter, limit int) ([]models.FormEntry, error)
	// QueryFilteredWithCounts is QueryFiltered plus each row's prior count, in one round trip.
	QueryFilteredWithCounts(ctx context.Context, filter Filter, limit int) ([]EntryWithCount, error)
	// CountFiltered counts every entry matching filter, ignoring any limit.
	CountFiltered(ctx context.Context, filter Filter) (int64, error)
	// CountPrior counts entries with the same names and a strictly earlier date.
	CountPrior(ctx context.Context, date time.Time, firstName, lastName string) (int64, error)
	UniqueFirstNames(ctx context.Context) ([]string, error)
	UniqueLastNames(ctx context.Context) ([]string, error)
	// WithinTransaction runs fn against a repository bound to one transaction. A returned
	// error or a panic rolls it back.
	WithinTransaction(ctx context.Context, fn func(FormEntryRepository) error) error
}

type formEntryRepository struct {
	db      *gorm.DB
	entries *repository.GormRepository[models.FormEntry]
	breaker circuitbreaker.CircuitBreaker
}

func NewFormEntryRepository(db *gorm.DB, breaker circuitbreaker.CircuitBreaker) FormEntryRepository {
	return &formEntryRepository{
		db:      db,
		entries: repository.NewGormRepository[models.FormEntry](db, breaker, "form entry"),
		breaker: breaker,
	}
}

func (r *formEntryRepository) withDB(tx *gorm.DB) *formEntryRepository {
	return &formEntryRepository{
		db:      tx,
		entries: r.entries.WithDB(tx),
		breaker: r.breaker,
	}
}

func (r *formEntryRepository) CreateEntry(ctx context.Context, date time.Time, firstName, lastName string) (*models.FormEntry, error) {
	entry := &models.FormEntry{
		Date:      models.DateOnly(date),
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := r.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *formEntryRepository) filtered(ctx context.Context, filter Filter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.FormEntry{}).
		Where("date <= ?", models.DateOnly(filter.DateUpperBound))

	if filter.FirstName != "" {
		q = q.Where("first_name = ?", filter.FirstName)
	}
	if filter.LastName != "" {
		q = q.Where("last_name = ?", filter.LastName)
	}

	return q
}

func (r *formEntryRepository) QueryFiltered(ctx context.Context, filter Filter, limit int) ([]models.FormEntry, error) {
	var entries []models.FormEntry

	err := repository.Guard(r.breaker, func() error {
		q := r.filtered(ctx, filter).Order("date DESC, first_name ASC, last_name ASC, id ASC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&entries).Error; err != nil {
			return apperrors.NewDatabaseError("unable to query form history", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *formEntryRepository) QueryFilteredWithCounts(ctx context.Context, filter Filter, limit int) ([]EntryWithCount, error) {
	filter.DateUpperBound = models.DateOnly(filter.DateUpperBound)

	query, args, err := buildHistoryQuery(filter, limit)
	if err != nil {
		return nil, apperrors.NewInternalServerError("unable to build history query", err)
	}

	var rows []historyRow

	err = repository.Guard(r.breaker, func() error {
		if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
			return apperrors.NewDatabaseError("unable to query form history", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]EntryWithCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntryWithCount())
	}

	return out, nil
}

func (r *formEntryRepository) CountFiltered(ctx context.Context, filter Filter) (int64, error) {
	var total int64

	err := repository.Guard(r.breaker, func() error {
		if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
			return apperrors.NewDatabaseError("unable to count form history", err)
		}
		return nil
	})

	return total, err
}

func (r *formEntryRepository) CountPrior(ctx context.Context, date time.Time, firstName, lastName string) (int64, error) {
	var count int64

	err := repository.Guard(r.breaker, func() error {
		err := r.db.WithContext(ctx).
			Model(&models.FormEntry{}).
			Where("first_name = ? AND last_name = ? AND date < ?", firstName, lastName, models.DateOnly(date)).
			Count(&count).Error
		if err != nil {
			return apperrors.NewDatabaseError("unable to count prior entries", err)
		}
		return nil
	})

	return count, err
}

func (r *formEntryRepository) UniqueFirstNames(ctx context.Context) ([]string, error) {
	return r.uniqueValues(ctx, colFirstName)
}

func (r *formEntryRepository) UniqueLastNames(ctx context.Context) ([]string, error) {
	return r.uniqueValues(ctx, colLastName)
}

func (r *formEntryRepository) uniqueValues(ctx context.Context, column string) ([]string, error) {
	names := []string{}

	err := repository.Guard(r.breaker, func() error {
		err := r.db.WithContext(ctx).
			Model(&models.FormEntry{}).
			Where(column+" <> ?", "").
			Distinct().
			Pluck(column, &names).Error
		if err != nil {
			return apperrors.NewDatabaseError("unable to list unique "+column+" values", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collators keep internal buffers, so one per call.
	collate.New(language.Und).SortStrings(names)

	return names, nil
}

func (r *formEntryRepository) WithinTransaction(ctx context.Context, fn func(FormEntryRepository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.withDB(tx))
	})

	return repository.AsDatabaseError("form history transaction failed", err)
}
