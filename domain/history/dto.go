package history

import (
	"time"

	"github.com/akeren/form-history-api/internal/models"
	"github.com/akeren/form-history-api/pkg/constants"
)

// DateLayout is the wire format of every date in requests and responses.
const DateLayout = constants.DateFormat

type SubmitFormRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	FirstName string `json:"first_name" binding:"required,min=1,max=255"`
	LastName  string `json:"last_name" binding:"required,min=1,max=255"`
}

type SubmitFormResponse struct {
	Success bool `json:"success"`
}

// GetHistoryRequest is bound from the query string. Empty names mean no name filter.
type GetHistoryRequest struct {
	Date      string `form:"date" binding:"required,datetime=2006-01-02"`
	FirstName string `form:"first_name" binding:"omitempty,max=255"`
	LastName  string `form:"last_name" binding:"omitempty,max=255"`
}

type HistoryItem struct {
	Date      string `json:"date"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Count     int64  `json:"count"`
}

type GetHistoryResponse struct {
	Items []HistoryItem `json:"items"`
	Total int64         `json:"total"`
}

type UniqueNamesResponse struct {
	FirstNames []string `json:"first_names"`
	LastNames  []string `json:"last_names"`
}

// ========================================
// Mappers
// ========================================

func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return models.DateOnly(d), nil
}

func ToFilter(req *GetHistoryRequest, upper time.Time) Filter {
	return Filter{
		DateUpperBound: upper,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}
}

func ToHistoryItem(row EntryWithCount) HistoryItem {
	return HistoryItem{
		Date:      row.Entry.Date.Format(DateLayout),
		FirstName: row.Entry.FirstName,
		LastName:  row.Entry.LastName,
		Count:     row.PriorCount,
	}
}

func ToGetHistoryResponse(rows []EntryWithCount, total int64) *GetHistoryResponse {
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToHistoryItem(row))
	}
	return &GetHistoryResponse{Items: items, Total: total}
}
