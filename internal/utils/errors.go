package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")
	// ErrConfigMissing matches any ConfigMissingError via errors.Is.
	ErrConfigMissing = errors.New("configuration missing")
)

// ValidationError represents an error occurring during data validation,
// e.g. a task message with missing identifiers.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFoundError reports that an entity required by an invocation does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error returns the error message string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError for the given entity kind and id.
func NewNotFoundError(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ConfigMissingError reports that a ranch lacks the settings a forecast needs.
type ConfigMissingError struct {
	RanchID string
	Section string
}

// Error returns the error message string.
func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("ranch %s is missing %s", e.RanchID, e.Section)
}

// Is lets errors.Is(err, ErrConfigMissing) match.
func (e *ConfigMissingError) Is(target error) bool {
	return target == ErrConfigMissing
}

// NewConfigMissingError creates a ConfigMissingError for a ranch and settings section.
func NewConfigMissingError(ranchID fmt.Stringer, section string) error {
	return &ConfigMissingError{RanchID: ranchID.String(), Section: section}
}

// IsPermanent reports whether retrying the operation that produced err cannot help.
// Missing entities, missing configuration and malformed input are permanent.
func IsPermanent(err error) bool {
	var validationErr *ValidationError
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConfigMissing) || errors.As(err, &validationErr)
}
