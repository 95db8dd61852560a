package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error classes. Every sentinel below wraps exactly one of them so the web
// layer can map by class with errors.Is.
var (
	// ErrValidation: malformed or missing input. HTTP 400.
	ErrValidation = errors.New("validation failed")

	// ErrConflict: a uniqueness rule would be broken. HTTP 400, not 409.
	ErrConflict = errors.New("conflict")

	// ErrAuthentication: bad credentials, disabled account, bad token. HTTP 401.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound: lookup miss.
	ErrNotFound = errors.New("not found")
)

var (
	ErrEmptyUsername      = fmt.Errorf("%w: username is required", ErrValidation)
	ErrInvalidUsername    = fmt.Errorf("%w: username may contain only letters, digits and @/./+/-/_ (max 150)", ErrValidation)
	ErrInvalidPhoneFormat = fmt.Errorf("%w: phone number must be in format: '+999999999'", ErrValidation)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 6 characters and contain both letters and numbers", ErrValidation)
	ErrInvalidName        = fmt.Errorf("%w: name is required and must be at most 100 characters", ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: enter a valid email address", ErrValidation)
	ErrMissingPhoneNumber = fmt.Errorf("%w: phone number is required", ErrValidation)
	ErrPhoneNumberTooLong = fmt.Errorf("%w: phone number must be at most 17 characters", ErrValidation)
	ErrInvalidContact     = fmt.Errorf("%w: invalid contact", ErrValidation)
	ErrEmptyQuery         = fmt.Errorf("%w: search query is required", ErrValidation)

	ErrDuplicateUsername    = fmt.Errorf("%w: this username is already taken", ErrConflict)
	ErrDuplicatePhoneNumber = fmt.Errorf("%w: this phone number is already registered", ErrConflict)
	ErrDuplicateReport      = fmt.Errorf("%w: you have already reported this number", ErrConflict)
	ErrDuplicateContact     = fmt.Errorf("%w: a contact with this phone number already exists", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrAccountDisabled    = fmt.Errorf("%w: user account disabled", ErrAuthentication)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrAuthentication)

	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)
	ErrContactNotFound = fmt.Errorf("%w: contact", ErrNotFound)
	ErrNoResults       = fmt.Errorf("%w: no results found", ErrNotFound)
)

// ValidationError collects per-field failures found before any write.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Add(field string, err error) {
	if e.Fields == nil {
		e.Fields = make(map[string]error)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = err
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.fieldNames() {
		parts = append(parts, f+": "+e.Fields[f].Error())
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, f := range e.fieldNames() {
		errs = append(errs, e.Fields[f])
	}
	return errs
}

func (e *ValidationError) fieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}
