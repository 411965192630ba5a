package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrForbidden    = errors.New("Not authorized")
	ErrNotFound     = errors.New("not found")
)

// NotFoundError names the missing resource and matches ErrNotFound.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

var (
	ErrBookingNotFound  error = &NotFoundError{Resource: "Booking"}
	ErrPropertyNotFound error = &NotFoundError{Resource: "Property"}
	ErrUserNotFound     error = &NotFoundError{Resource: "User"}
)

// ValidationError reports malformed or missing input. It is always a client error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var (
	ErrMissingFields = &ValidationError{Message: "Missing fields"}
	ErrInvalidStatus = &ValidationError{Message: "Invalid status"}
)

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
