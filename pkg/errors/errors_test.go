package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namePayload struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	FirstName string `json:"first_name" validate:"required,nowhitespace"`
	LastName  string `form:"last_name" validate:"max=3"`
}

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()

	v := validator.New()
	require.NoError(t, v.RegisterValidation("nowhitespace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), " \t\n")
	}))
	return v
}

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewFieldError("first_name", "bad"), StatusBadRequest},
		{NewInvalidRequestError("bad", nil), StatusBadRequest},
		{NewUnprocessableEntityError("bad date", nil), StatusUnprocessableEntity},
		{NewNotFoundError("missing", nil), StatusNotFound},
		{NewConflictError("dup", nil), StatusConflict},
		{NewDatabaseError("db down", errors.New("dial tcp")), StatusInternalServerError},
		{errors.New("plain"), StatusInternalServerError},
		{&AppError{Type: "TOO_MANY_REQUESTS", Message: "slow down"}, StatusInternalServerError},
		{&AppError{Type: ErrorTypeUnknown, Message: "?"}, StatusInternalServerError},
		{nil, StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusCode(tc.err), "%v", tc.err)
	}
}

func TestErrorMap_FieldErrorsKeepOrderPerField(t *testing.T) {
	got := ErrorMap([]error{
		NewFieldError("first_name", WhitespaceMessage("first_name")),
		NewFieldError("last_name", WhitespaceMessage("last_name")),
		NewFieldError("first_name", "second"),
	}, false)

	assert.Equal(t, map[string][]string{
		"first_name": {"No whitespace in first_name is allowed", "second"},
		"last_name":  {"No whitespace in last_name is allowed"},
	}, got)
}

func TestErrorMap_TypedClientErrorUsesLowercasedType(t *testing.T) {
	got := ErrorMap([]error{NewNotFoundError("Entry not found", nil)}, false)

	assert.Equal(t, map[string][]string{"not_found": {"Entry not found"}}, got)
}

func TestErrorMap_ServerErrorHidesCauseInProduction(t *testing.T) {
	err := NewDatabaseError("Failed to store entry", errors.New("pq: connection refused"))

	got := ErrorMap([]error{NewFieldError("first_name", "x"), err}, false)

	assert.Equal(t, map[string][]string{ServerErrorKey: {ServerErrorMessage}}, got)
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(errors.New("secret")))
}

func TestServerErrorMessages_DebugAppendsCauseAndLocation(t *testing.T) {
	err := NewDatabaseError("Failed to store entry", errors.New("pq: connection refused"))

	messages := ServerErrorMessages(err, true)

	require.Len(t, messages, 3)
	assert.Equal(t, ServerErrorMessage, messages[0])
	assert.Equal(t, "pq: connection refused", messages[1])
	assert.Regexp(t, `^errors/errors_test\.go:\d+$`, messages[2])

	assert.Equal(t, []string{ServerErrorMessage, "boom"}, ServerErrorMessages(errors.New("boom"), true))
}

func TestFormatValidationErrors_UsesWireNames(t *testing.T) {
	v := newTestValidator(t)

	err := v.Struct(&namePayload{Date: "18-10-2026", FirstName: "Mary Ann", LastName: "Smith"})
	got := GroupByField(FormatValidationErrors(err, &namePayload{}))

	assert.Equal(t, map[string][]string{
		"date":       {"Invalid date format, expected YYYY-MM-DD"},
		"first_name": {"No whitespace in first_name is allowed"},
		"last_name":  {"Must not exceed 3 characters"},
	}, got)
}

func TestFormatValidationErrors_RequiredField(t *testing.T) {
	err := newTestValidator(t).Struct(&namePayload{})

	got := GroupByField(FormatValidationErrors(err, &namePayload{}))

	assert.Equal(t, []string{"This field is required"}, got["date"])
	assert.Equal(t, []string{"This field is required"}, got["first_name"])
}

func TestFormatValidationErrors_JSONDecodeFailures(t *testing.T) {
	var payload namePayload

	typeErr := json.Unmarshal([]byte(`{"first_name": 12}`), &payload)
	got := FormatValidationErrors(typeErr, &payload)
	require.Len(t, got, 1)
	assert.Equal(t, "first_name", got[0].Field)

	syntaxErr := json.Unmarshal([]byte(`{"first_name":`), &payload)
	assert.Equal(t, []ValidationErrorResponse{{Field: BodyFieldKey, Message: "Malformed JSON body"}},
		FormatValidationErrors(syntaxErr, &payload))

	assert.Empty(t, FormatValidationErrors(errors.New("something else"), &payload))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: form_history.id")))
	assert.True(t, IsDuplicateKeyError(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyError(nil))
}
