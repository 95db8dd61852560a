package v1

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?1?\d{9,15}$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

	validate = validator.New()
)

const (
	maxUsernameLen = 150
	maxNameLen     = 100
	minPasswordLen = 6
)

// ValidPhoneNumber reports whether s is an international-format number:
// optional '+', optional leading '1', then 9 to 15 digits.
func ValidPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// StrongPassword requires six characters including an ASCII letter and a digit.
func StrongPassword(s string) bool {
	if utf8.RuneCountInString(s) < minPasswordLen {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// validateRegistration checks formats only; uniqueness is checked against the store afterwards.
func validateRegistration(req *domain.RegisterRequest) error {
	var verr domain.ValidationError

	req.Username = strings.TrimSpace(req.Username)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.Name = strings.TrimSpace(req.Name)

	switch {
	case req.Username == "":
		verr.Add("username", domain.ErrEmptyUsername)
	case utf8.RuneCountInString(req.Username) > maxUsernameLen || !usernamePattern.MatchString(req.Username):
		verr.Add("username", domain.ErrInvalidUsername)
	}

	if !StrongPassword(req.Password) {
		verr.Add("password", domain.ErrWeakPassword)
	}

	if !ValidPhoneNumber(req.PhoneNumber) {
		verr.Add("phone_number", domain.ErrInvalidPhoneFormat)
	}

	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLen {
		verr.Add("name", domain.ErrInvalidName)
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		switch {
		case email == "":
			req.Email = nil
		case validate.Var(email, "email") != nil:
			verr.Add("email", domain.ErrInvalidEmail)
		default:
			req.Email = &email
		}
	}

	return verr.OrNil()
}

// validateReportedPhone bounds a reported number to the stored column width.
// Any format is accepted so unregistered numbers can be flagged as seen.
func validateReportedPhone(phone string) error {
	if phone == "" {
		return domain.ErrMissingPhoneNumber
	}
	if validate.Var(phone, "max=17") != nil {
		return domain.ErrPhoneNumberTooLong
	}
	return nil
}

// validateContact checks a complete contact after a partial update has been applied.
func validateContact(c *domain.Contact) error {
	var verr domain.ValidationError
	if err := validate.Var(c.Name, "required,max=100"); err != nil || strings.TrimSpace(c.Name) == "" {
		verr.Add("name", domain.ErrInvalidContact)
	}
	if err := validate.Var(c.PhoneNumber, "required,max=17"); err != nil || strings.TrimSpace(c.PhoneNumber) == "" {
		verr.Add("phone_number", domain.ErrInvalidContact)
	}
	return verr.OrNil()
}
