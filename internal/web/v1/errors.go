package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/middleware"
)

// publicMessages maps domain errors to client-facing text. Checked in order.
var publicMessages = []struct {
	err error
	msg string
}{
	{domain.ErrEmptyUsername, "This field is required."},
	{domain.ErrInvalidUsername, "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."},
	{domain.ErrInvalidPhoneFormat, "Phone number must be in format: '+999999999'"},
	{domain.ErrWeakPassword, "Password must be at least 6 characters and contain both letters and numbers"},
	{domain.ErrInvalidName, "This field is required and may not exceed 100 characters."},
	{domain.ErrInvalidEmail, "Enter a valid email address."},
	{domain.ErrMissingPhoneNumber, "Phone number is required"},
	{domain.ErrPhoneNumberTooLong, "Ensure this field has no more than 17 characters."},
	{domain.ErrInvalidContact, "This field is required and must not exceed its maximum length."},
	{domain.ErrEmptyQuery, "Search query is required"},
	{domain.ErrDuplicateUsername, "This username is already taken"},
	{domain.ErrDuplicatePhoneNumber, "This phone number is already registered"},
	{domain.ErrDuplicateReport, "You have already reported this number"},
	{domain.ErrDuplicateContact, "A contact with this phone number already exists"},
	{domain.ErrInvalidCredentials, "Invalid credentials"},
	{domain.ErrAccountDisabled, "User account disabled"},
	{domain.ErrInvalidToken, "Token is invalid or expired"},
	{domain.ErrContactNotFound, "Not found."},
	{domain.ErrNoResults, "No results found"},
}

func publicMessage(err error) string {
	for _, m := range publicMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Invalid request"
}

// respondError maps a service error onto the HTTP taxonomy:
// validation and conflict are 400, authentication 401, not found 404,
// anything else 500 with the cause only in the logs.
func respondError(c *gin.Context, span trace.Span, logger *zap.Logger, msg string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string][]string, len(verr.Fields))
		for field, ferr := range verr.Fields {
			fields[field] = []string{publicMessage(ferr)}
		}
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, fields)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": publicMessage(err)})
	case errors.Is(err, domain.ErrAuthentication):
		logger.Info(msg, zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": publicMessage(err)})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": publicMessage(err)})
	default:
		middleware.RecordError(span, err)
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
