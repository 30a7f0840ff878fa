package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrFormNotFound      = fmt.Errorf("%w: form", ErrNotFound)
	ErrWorkspaceNotFound = fmt.Errorf("%w: workspace", ErrNotFound)
	ErrOutputNotFound    = fmt.Errorf("%w: prediction output", ErrNotFound)

	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrFormLimit        = errors.New("maximum number of products reached")
	ErrUnknownCountry   = errors.New("unknown country code")
	ErrUnknownCategory  = errors.New("unknown category code")
	ErrInvalidResponse  = errors.New("invalid data structure")
	ErrUploadInProgress = errors.New("upload already in progress")
)

// NewNotFoundError wraps ErrNotFound with the resource kind and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError describes an invalid field
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

// IsNotFoundError reports whether err is any kind of not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err is a domain validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrFormLimit) ||
		errors.Is(err, ErrUnknownCountry) ||
		errors.Is(err, ErrUnknownCategory)
}
