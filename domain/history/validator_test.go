package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNames_AcceptsPlainNames(t *testing.T) {
	assert.Empty(t, ValidateNames("Ivan", "Ivanov"))
	assert.Empty(t, ValidateNames("Jean-Luc", "O'Neil"))
}

func TestValidateNames_RejectsAnyWhitespace(t *testing.T) {
	for _, name := range []string{"Ivan Ivanov", "Ivan\tIvanov", "Ivan\n", " Ivan", "Ivan\u00a0Ivanov", "Ivan\u2003"} {
		errs := ValidateNames(name, "Ivanov")

		require.Len(t, errs, 1, "%q", name)
		assert.Equal(t, FieldFirstName, errs[0].Field)
		assert.Equal(t, "No whitespace in first_name is allowed", errs[0].Message)
	}
}

func TestValidateNames_ReportsBothFieldsInOrder(t *testing.T) {
	errs := ValidateNames("Ivan Ivanov", "Ivanov Ivan")

	require.Len(t, errs, 2)
	assert.Equal(t, FieldFirstName, errs[0].Field)
	assert.Equal(t, FieldLastName, errs[1].Field)
	assert.Equal(t, "No whitespace in last_name is allowed", errs[1].Message)
}
