package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned for an illegal borrow/return transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserHasBorrowedBooks is returned when deleting a user who still holds books.
	ErrUserHasBorrowedBooks = errors.New("user has borrowed books")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")
)

// ValidationError reports a malformed value for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
