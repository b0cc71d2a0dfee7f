package history

import (
	"time"

	"github.com/akeren/form-history-api/internal/models"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	colID        = "id"
	colDate      = "date"
	colFirstName = "first_name"
	colLastName  = "last_name"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"

	aliasPriorRank = "prior_rank"
)

// historyDialect renders "?" placeholders and double-quoted identifiers, which gorm
// rebinds for postgres and passes through for sqlite.
var historyDialect = goqu.Dialect("default")

// historyRow is one result row of the history query.
type historyRow struct {
	ID        string
	Date      time.Time
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
	PriorRank int64
}

func (r historyRow) toEntryWithCount() EntryWithCount {
	return EntryWithCount{
		Entry: models.FormEntry{
			ID:        r.ID,
			Date:      models.DateOnly(r.Date),
			FirstName: r.FirstName,
			LastName:  r.LastName,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		// RANK over the date order starts at 1 and ties share a rank, so rank-1 is the
		// number of same-name rows with a strictly earlier date.
		PriorCount: r.PriorRank - 1,
	}
}

func filterExpressions(filter Filter) []exp.Expression {
	exprs := []exp.Expression{goqu.C(colDate).Lte(filter.DateUpperBound)}

	if filter.FirstName != "" {
		exprs = append(exprs, goqu.C(colFirstName).Eq(filter.FirstName))
	}
	if filter.LastName != "" {
		exprs = append(exprs, goqu.C(colLastName).Eq(filter.LastName))
	}

	return exprs
}

// buildHistoryQuery selects the filtered page with a per-row prior count in one
// statement. The window runs over the filtered rows only; that is exact because the
// filter keeps whole name partitions and every earlier date of a kept row.
func buildHistoryQuery(filter Filter, limit int) (string, []interface{}, error) {
	window := goqu.W().
		PartitionBy(goqu.C(colFirstName), goqu.C(colLastName)).
		OrderBy(goqu.C(colDate).Asc())

	ds := historyDialect.
		From(models.FormEntryTableName).
		Prepared(true).
		Select(
			goqu.C(colID),
			goqu.C(colDate),
			goqu.C(colFirstName),
			goqu.C(colLastName),
			goqu.C(colCreatedAt),
			goqu.C(colUpdatedAt),
			goqu.RANK().Over(window).As(aliasPriorRank),
		).
		Where(filterExpressions(filter)...).
		Order(
			goqu.C(colDate).Desc(),
			goqu.C(colFirstName).Asc(),
			goqu.C(colLastName).Asc(),
			goqu.C(colID).Asc(),
		)

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	return ds.ToSQL()
}
