package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const FormEntryTableName = "form_history"

// FormEntry is one submitted form. Duplicates of (date, first_name, last_name) are
// separate submissions.
type FormEntry struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Date      time.Time `gorm:"type:date;not null;index:idx_form_history_date;index:idx_form_history_name_date,priority:3"`
	FirstName string    `gorm:"type:varchar(255);not null;index:idx_form_history_name_date,priority:1"`
	LastName  string    `gorm:"type:varchar(255);not null;index:idx_form_history_name_date,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FormEntry) TableName() string {
	return FormEntryTableName
}

func (e *FormEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
