package models

import (
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/validator"
	"github.com/google/uuid"
)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Title is a non-empty book title.
type Title string

func NewTitle(s string) (Title, error) {
	v, err := nonEmpty("title", s)
	return Title(v), err
}

// Author is a non-empty author name.
type Author string

func NewAuthor(s string) (Author, error) {
	v, err := nonEmpty("author", s)
	return Author(v), err
}

// Name is a non-empty user display name.
type Name string

func NewName(s string) (Name, error) {
	v, err := nonEmpty("name", s)
	return Name(v), err
}

// Email is a syntactically valid, lower-cased email address.
type Email string

func NewEmail(s string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", NewValidationError("email", "must be provided")
	}
	if len(v) > 254 || !validator.Matches(v, validator.EmailRX) {
		return "", NewValidationError("email", "must be a valid email address")
	}
	return Email(v), nil
}

// Password is a plaintext password as supplied by a client. It never leaves
// the service layer; only its hash is stored.
type Password string

func NewPassword(s string) (Password, error) {
	switch {
	case s == "":
		return "", NewValidationError("password", "must be provided")
	case len(s) < 8:
		return "", NewValidationError("password", "must be at least 8 characters long")
	case len(s) > 72:
		// bcrypt ignores everything past 72 bytes
		return "", NewValidationError("password", "must not be more than 72 bytes long")
	}
	return Password(s), nil
}

func nonEmpty(field, s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", NewValidationError(field, "must be provided")
	}
	if len(v) > 500 {
		return "", NewValidationError(field, "must not be more than 500 bytes long")
	}
	return v, nil
}

// optional turns an empty string into nil so "supplied empty" clears a field.
func optional(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}
