package history

import (
	"strings"
	"unicode"

	apperrors "github.com/akeren/form-history-api/pkg/errors"
)

const (
	FieldDate      = "date"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
)

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// ValidateNames reports one field error per name containing whitespace, first_name
// before last_name. A nil slice means both names are acceptable.
func ValidateNames(firstName, lastName string) []*apperrors.AppError {
	var errs []*apperrors.AppError

	for _, field := range []struct{ name, value string }{
		{FieldFirstName, firstName},
		{FieldLastName, lastName},
	} {
		if containsWhitespace(field.value) {
			errs = append(errs, apperrors.NewFieldError(field.name, apperrors.WhitespaceMessage(field.name)))
		}
	}

	return errs
}
