package errors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusConflict            = 409
	StatusUnprocessableEntity = 422
	StatusInternalServerError = 500
)

const (
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeValidation          = "VALIDATION_ERROR"
	ErrorTypeUnprocessableEntity = "UNPROCESSABLE_ENTITY"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

// callerDepth is the runtime.Caller skip that lands on the caller of an exported constructor.
const callerDepth = 3

type AppError struct {
	Type    string
	Message string
	Err     error
	// Field is set for errors that belong to a single request field.
	Field string
	// Location is the package/file:line that created the error.
	Location string
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(errType, message string, err error) *AppError {
	return &AppError{
		Type:     errType,
		Message:  message,
		Err:      err,
		Location: callerLocation(callerDepth),
	}
}

func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	dir, name := filepath.Split(file)
	pkg := filepath.Base(strings.TrimSuffix(dir, string(filepath.Separator)))

	return pkg + "/" + name + ":" + strconv.Itoa(line)
}

func NewNotFoundError(message string, err error) *AppError {
	return newAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return newAppError(ErrorTypeInvalidRequest, message, err)
}

// NewFieldError reports a business rule violation on a single request field.
func NewFieldError(field, message string) *AppError {
	e := newAppError(ErrorTypeValidation, message, nil)
	e.Field = field
	return e
}

func NewUnprocessableEntityError(message string, err error) *AppError {
	return newAppError(ErrorTypeUnprocessableEntity, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return newAppError(ErrorTypeDatabaseError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return newAppError(ErrorTypeConflict, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return newAppError(ErrorTypeInternalServerError, message, err)
}

func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return ErrorTypeUnknown
}

func DeduceErrorTypeFromErrorString(err error) string {
	if err == nil {
		return ""
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case errMsg == "":
		return ""
	case strings.Contains(errMsg, "not found"):
		return ErrorTypeNotFound
	case strings.Contains(errMsg, "conflict"):
		return ErrorTypeConflict
	case strings.Contains(errMsg, "database"):
		return ErrorTypeDatabaseError
	case strings.Contains(errMsg, "invalid request"):
		return ErrorTypeInvalidRequest
	}

	return ErrorTypeUnknown
}

func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return DeduceErrorTypeFromErrorString(err) == ErrorTypeConflict ||
		strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint")
}
