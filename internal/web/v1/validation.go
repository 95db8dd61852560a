package v1

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// sanitizeValidationError turns a gin binding error into a message safe to
// return to clients. Raw decoder and validator text never leaves the service.
func sanitizeValidationError(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "Malformed JSON body"
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return "Invalid value for " + typeErr.Field
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		names := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			names = append(names, jsonFieldName(fe.Field()))
		}
		return "Missing or invalid fields: " + strings.Join(names, ", ")
	default:
		return "Invalid request"
	}
}

// jsonFieldName maps Go struct field names used in request types to their wire names
func jsonFieldName(field string) string {
	switch field {
	case "RefreshToken":
		return "refresh_token"
	case "PhoneNumber":
		return "phone_number"
	default:
		return strings.ToLower(field)
	}
}
