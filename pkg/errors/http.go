package errors

import (
	"errors"
	"strings"
)

const (
	// ServerErrorKey is the error key used for every unexpected failure.
	ServerErrorKey     = "server_error"
	ServerErrorMessage = "Internal Server Error"
)

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}

	errorType := GetErrorType(err)

	switch errorType {
	case ErrorTypeNotFound:
		return StatusNotFound
	case ErrorTypeInvalidRequest, ErrorTypeValidation:
		return StatusBadRequest
	case ErrorTypeUnprocessableEntity:
		return StatusUnprocessableEntity
	case ErrorTypeConflict:
		return StatusConflict
	case ErrorTypeDatabaseError:
		return StatusInternalServerError
	case ErrorTypeInternalServerError:
		return StatusInternalServerError
	default:
		return StatusInternalServerError
	}
}

func GetHumanReadableMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	// Internal error strings never reach clients.
	return "An unexpected error occurred"
}

// IsServerError reports whether err must be rendered as an opaque 500.
func IsServerError(err error) bool {
	return HTTPStatusCode(err) >= StatusInternalServerError
}

// ErrorKey returns the key an error is reported under in the error body.
// Field errors use their field name, other client errors use their lowercased type.
func ErrorKey(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) || IsServerError(err) {
		return ServerErrorKey
	}
	if appErr.Field != "" {
		return appErr.Field
	}
	return strings.ToLower(appErr.Type)
}

// ServerErrorMessages builds the message list for an unexpected failure. With debug
// enabled the cause and, when known, the creating location are appended.
func ServerErrorMessages(err error, debug bool) []string {
	messages := []string{ServerErrorMessage}
	if !debug || err == nil {
		return messages
	}

	cause := err
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			cause = appErr.Err
		}
		messages = append(messages, cause.Error())
		if appErr.Location != "" {
			messages = append(messages, appErr.Location)
		}
		return messages
	}

	return append(messages, cause.Error())
}

// ErrorMap folds errors into the field -> messages shape. Any server error collapses
// the whole map to the single server_error entry.
func ErrorMap(errs []error, debug bool) map[string][]string {
	for _, err := range errs {
		if IsServerError(err) {
			return map[string][]string{ServerErrorKey: ServerErrorMessages(err, debug)}
		}
	}

	out := make(map[string][]string, len(errs))
	for _, err := range errs {
		key := ErrorKey(err)
		out[key] = append(out[key], GetHumanReadableMessage(err))
	}
	return out
}
