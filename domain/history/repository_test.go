package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akeren/form-history-api/internal/models"
	"github.com/akeren/form-history-api/pkg/circuitbreaker"
	apperrors "github.com/akeren/form-history-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.FormEntry{}))
	return db
}

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seed(t *testing.T, repo FormEntryRepository, rows ...[3]string) {
	t.Helper()
	for _, r := range rows {
		_, err := repo.CreateEntry(context.Background(), day(r[0]), r[1], r[2])
		require.NoError(t, err)
	}
}

func TestFormEntryRepository_CreateEntry(t *testing.T) {
	repo := NewFormEntryRepository(newTestDB(t), nil)

	entry, err := repo.CreateEntry(context.Background(), time.Date(2025, 3, 4, 17, 30, 0, 0, time.UTC), "Ivan", "Ivanov")

	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, day("2025-03-04"), entry.Date)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestFormEntryRepository_QueryFilteredWithCounts(t *testing.T) {
	ctx := context.Background()
	repo := NewFormEntryRepository(newTestDB(t), nil)

	seed(t, repo,
		[3]string{"2025-01-10", "Ivan", "Ivanov"},
		[3]string{"2025-01-15", "Ivan", "Ivanov"},
		[3]string{"2025-01-20", "Ivan", "Ivanov"},
		[3]string{"2025-01-15", "Anna", "Petrova"},
		[3]string{"2025-01-25", "Anna", "Petrova"},
	)

	t.Run("prior counts for one name", func(t *testing.T) {
		rows, err := repo.QueryFilteredWithCounts(ctx, Filter{DateUpperBound: day("2025-01-20"), FirstName: "Ivan", LastName: "Ivanov"}, HistoryPageSize)

		require.NoError(t, err)
		require.Len(t, rows, 3)

		var counts []int64
		var dates []string
		for _, r := range rows {
			counts = append(counts, r.PriorCount)
			dates = append(dates, r.Entry.Date.Format(DateLayout))
		}
		assert.Equal(t, []int64{2, 1, 0}, counts)
		assert.Equal(t, []string{"2025-01-20", "2025-01-15", "2025-01-10"}, dates)
	})

	t.Run("upper bound is inclusive and ordering breaks ties by name", func(t *testing.T) {
		rows, err := repo.QueryFilteredWithCounts(ctx, Filter{DateUpperBound: day("2025-01-15")}, HistoryPageSize)

		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Anna", rows[0].Entry.FirstName)
		assert.Equal(t, int64(0), rows[0].PriorCount)
		assert.Equal(t, "Ivan", rows[1].Entry.FirstName)
		assert.Equal(t, int64(1), rows[1].PriorCount)
		assert.Equal(t, "2025-01-10", rows[2].Entry.Date.Format(DateLayout))
	})

	t.Run("nothing before the first entry", func(t *testing.T) {
		rows, err := repo.QueryFilteredWithCounts(ctx, Filter{DateUpperBound: day("2024-12-31")}, HistoryPageSize)

		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("counts agree with CountPrior", func(t *testing.T) {
		rows, err := repo.QueryFilteredWithCounts(ctx, Filter{DateUpperBound: day("2025-12-31")}, 0)
		require.NoError(t, err)
		require.Len(t, rows, 5)

		for _, r := range rows {
			prior, err := repo.CountPrior(ctx, r.Entry.Date, r.Entry.FirstName, r.Entry.LastName)
			require.NoError(t, err)
			assert.Equal(t, prior, r.PriorCount, "%s %s %s", r.Entry.Date.Format(DateLayout), r.Entry.FirstName, r.Entry.LastName)
		}
	})
}

func TestFormEntryRepository_LimitAndTotal(t *testing.T) {
	ctx := context.Background()
	repo := NewFormEntryRepository(newTestDB(t), nil)

	start := day("2025-02-01")
	for i := 0; i < 12; i++ {
		_, err := repo.CreateEntry(ctx, start.AddDate(0, 0, i), "Ivan", "Ivanov")
		require.NoError(t, err)
	}

	filter := Filter{DateUpperBound: day("2025-03-01")}

	rows, err := repo.QueryFilteredWithCounts(ctx, filter, HistoryPageSize)
	require.NoError(t, err)
	assert.Len(t, rows, HistoryPageSize)
	assert.Equal(t, int64(11), rows[0].PriorCount)

	plain, err := repo.QueryFiltered(ctx, filter, HistoryPageSize)
	require.NoError(t, err)
	assert.Len(t, plain, HistoryPageSize)
	assert.Equal(t, rows[0].Entry.ID, plain[0].ID)

	total, err := repo.CountFiltered(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
}

func TestFormEntryRepository_RepeatedQueryIsStable(t *testing.T) {
	ctx := context.Background()
	repo := NewFormEntryRepository(newTestDB(t), nil)

	// Ties on date alone and on the full (date, name) triple, with the page limit
	// cutting through the tied block.
	for i := 0; i < 4; i++ {
		seed(t, repo,
			[3]string{"2025-01-15", "Ivan", "Ivanov"},
			[3]string{"2025-01-15", "Anna", "Petrova"},
			[3]string{"2025-01-15", "Boris", "Sidorov"},
		)
	}
	seed(t, repo, [3]string{"2025-01-10", "Ivan", "Ivanov"})

	filter := Filter{DateUpperBound: day("2025-01-15")}

	first, err := repo.QueryFilteredWithCounts(ctx, filter, HistoryPageSize)
	require.NoError(t, err)
	second, err := repo.QueryFilteredWithCounts(ctx, filter, HistoryPageSize)
	require.NoError(t, err)

	require.Len(t, first, HistoryPageSize)
	assert.Equal(t, first, second)

	plainFirst, err := repo.QueryFiltered(ctx, filter, HistoryPageSize)
	require.NoError(t, err)
	plainSecond, err := repo.QueryFiltered(ctx, filter, HistoryPageSize)
	require.NoError(t, err)
	assert.Equal(t, plainFirst, plainSecond)

	for i := range first {
		assert.Equal(t, first[i].Entry.ID, plainFirst[i].ID)
	}

	totalFirst, err := repo.CountFiltered(ctx, filter)
	require.NoError(t, err)
	totalSecond, err := repo.CountFiltered(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(13), totalFirst)
	assert.Equal(t, totalFirst, totalSecond)
}

func TestFormEntryRepository_CountPrior(t *testing.T) {
	ctx := context.Background()
	repo := NewFormEntryRepository(newTestDB(t), nil)

	seed(t, repo,
		[3]string{"2025-01-01", "Ivan", "Ivanov"},
		[3]string{"2025-01-02", "Ivan", "Ivanov"},
		[3]string{"2025-01-03", "Ivan", "Ivanov"},
		[3]string{"2025-01-03", "Ivan", "Ivanov"},
		[3]string{"2025-01-02", "Ivan", "Petrov"},
	)

	count, err := repo.CountPrior(ctx, day("2025-01-03"), "Ivan", "Ivanov")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountPrior(ctx, day("2025-01-01"), "Ivan", "Ivanov")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestFormEntryRepository_UniqueNames(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewFormEntryRepository(db, nil)

	seed(t, repo,
		[3]string{"2025-01-01", "Ivan", "Ivanov"},
		[3]string{"2025-01-02", "Anna", "Ivanov"},
		[3]string{"2025-01-03", "Ivan", "Petrova"},
	)
	require.NoError(t, db.Create(&models.FormEntry{Date: day("2025-01-04"), FirstName: "", LastName: "Sidorov"}).Error)

	first, err := repo.UniqueFirstNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Ivan"}, first)

	last, err := repo.UniqueLastNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivanov", "Petrova", "Sidorov"}, last)
}

func TestFormEntryRepository_UniqueNamesEmpty(t *testing.T) {
	repo := NewFormEntryRepository(newTestDB(t), nil)

	names, err := repo.UniqueFirstNames(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestFormEntryRepository_WithinTransaction(t *testing.T) {
	ctx := context.Background()
	repo := NewFormEntryRepository(newTestDB(t), nil)

	t.Run("error rolls back", func(t *testing.T) {
		boom := errors.New("boom")

		err := repo.WithinTransaction(ctx, func(tx FormEntryRepository) error {
			if _, err := tx.CreateEntry(ctx, day("2025-01-01"), "Ivan", "Ivanov"); err != nil {
				return err
			}
			return boom
		})

		assert.ErrorIs(t, err, boom)
		total, err := repo.CountFiltered(ctx, Filter{DateUpperBound: day("2030-01-01")})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("commit persists", func(t *testing.T) {
		err := repo.WithinTransaction(ctx, func(tx FormEntryRepository) error {
			_, err := tx.CreateEntry(ctx, day("2025-01-01"), "Ivan", "Ivanov")
			return err
		})

		require.NoError(t, err)
		total, err := repo.CountFiltered(ctx, Filter{DateUpperBound: day("2030-01-01")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestFormEntryRepository_OpenBreakerFailsFast(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	repo := NewFormEntryRepository(db, breaker)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.CountFiltered(ctx, Filter{DateUpperBound: day("2025-01-01")})
	assert.Equal(t, apperrors.ErrorTypeDatabaseError, apperrors.GetErrorType(err))
	assert.Equal(t, circuitbreaker.Open, breaker.State())

	_, err = repo.UniqueFirstNames(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}

func TestBuildHistoryQuery(t *testing.T) {
	sql, args, err := buildHistoryQuery(Filter{DateUpperBound: day("2025-01-20"), FirstName: "Ivan"}, 10)

	require.NoError(t, err)
	assert.Contains(t, sql, `RANK() OVER (PARTITION BY "first_name", "last_name" ORDER BY "date" ASC) AS "prior_rank"`)
	assert.Contains(t, sql, `FROM "form_history"`)
	assert.Contains(t, sql, `ORDER BY "date" DESC, "first_name" ASC, "last_name" ASC, "id" ASC`)
	assert.Contains(t, sql, "LIMIT ?")
	assert.NotContains(t, sql, `"last_name" = ?`)
	require.Len(t, args, 3)
	assert.Equal(t, "Ivan", args[1])
}
