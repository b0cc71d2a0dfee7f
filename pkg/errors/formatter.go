package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/akeren/form-history-api/pkg/constants"
	"github.com/go-playground/validator/v10"
)

// BodyFieldKey is used for request failures that cannot be tied to a single field.
const BodyFieldKey = "body"

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WhitespaceMessage is the fixed message for names that contain whitespace.
func WhitespaceMessage(field string) string {
	return fmt.Sprintf("No whitespace in %s is allowed", field)
}

func mentionsWhitespace(s string) bool {
	return strings.Contains(strings.ToLower(s), "whitespace")
}

func msgForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short or too small"
	case "max":
		return "Value is too long or too large"
	case "len":
		return "Value must be exact length"
	case "numeric":
		return "Value must be numeric"
	case "alpha":
		return "Value must contain only letters"
	case "alphanum":
		return "Value must contain only letters and numbers"
	case "datetime":
		return "Invalid date format"
	case "url":
		return "Invalid URL format"
	case "uri":
		return "Invalid URI format"
	case "eqfield":
		return "Value must match the referenced field"
	case "nefield":
		return "Value must not match the referenced field"
	case "gt":
		return "Value must be greater than specified"
	case "gte":
		return "Value must be greater than or equal to specified"
	case "lt":
		return "Value must be less than specified"
	case "lte":
		return "Value must be less than or equal to specified"
	default:
		return "Invalid value"
	}
}

// getJSONFieldName resolves the wire name of a struct field from its json tag,
// falling back to the form tag used for query binding.
func getJSONFieldName(structType reflect.Type, fieldName string) string {
	field, found := structType.FieldByName(fieldName)
	if !found {
		return fieldName
	}

	for _, key := range []string{"json", "form"} {
		tag := field.Tag.Get(key)
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			return name
		}
	}

	return fieldName
}

func FormatValidationErrors(err error, model interface{}) []ValidationErrorResponse {
	var errorsList []ValidationErrorResponse

	if err == nil {
		return errorsList
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = BodyFieldKey
		}
		return []ValidationErrorResponse{
			{
				Field:   field,
				Message: fmt.Sprintf("Invalid type for field %s. Expected %s, got %s", field, typeErr.Type, typeErr.Value),
			},
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []ValidationErrorResponse{{Field: BodyFieldKey, Message: "Malformed JSON body"}}
	}

	if errors.Is(err, io.EOF) {
		return []ValidationErrorResponse{{Field: BodyFieldKey, Message: "Request body is required"}}
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {

		var structType reflect.Type
		if model != nil {
			structType = reflect.TypeOf(model)
			if structType.Kind() == reflect.Ptr {
				structType = structType.Elem()
			}
		}

		errorsList = make([]ValidationErrorResponse, len(validationErrors))

		for i, fieldError := range validationErrors {
			jsonField := fieldError.Field()
			if structType != nil && structType.Kind() == reflect.Struct {
				jsonField = getJSONFieldName(structType, fieldError.StructField())
			}

			message := msgForTag(fieldError.Tag())

			if fieldError.Param() != "" {
				switch fieldError.Tag() {
				case "min":
					message = fmt.Sprintf("Must be at least %s characters", fieldError.Param())
				case "max":
					message = fmt.Sprintf("Must not exceed %s characters", fieldError.Param())
				case "len":
					message = fmt.Sprintf("Must be exactly %s characters", fieldError.Param())
				case "gt":
					message = fmt.Sprintf("Must be greater than %s", fieldError.Param())
				case "gte":
					message = fmt.Sprintf("Must be greater than or equal to %s", fieldError.Param())
				case "lt":
					message = fmt.Sprintf("Must be less than %s", fieldError.Param())
				case "lte":
					message = fmt.Sprintf("Must be less than or equal to %s", fieldError.Param())
				case "datetime":
					if fieldError.Param() == constants.DateFormat {
						message = "Invalid date format, expected YYYY-MM-DD"
					}
				}
			}

			if mentionsWhitespace(fieldError.Tag()) || mentionsWhitespace(message) {
				message = WhitespaceMessage(jsonField)
			}

			errorsList[i] = ValidationErrorResponse{
				Field:   jsonField,
				Message: message,
			}
		}
	}

	return errorsList
}

// GroupByField folds a flat validation error list into the field -> messages shape,
// keeping message order per field.
func GroupByField(list []ValidationErrorResponse) map[string][]string {
	grouped := make(map[string][]string, len(list))

	for _, item := range list {
		grouped[item.Field] = append(grouped[item.Field], item.Message)
	}

	return grouped
}
