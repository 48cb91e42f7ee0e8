// Package models defines the BookKeeper domain entities, their value types
// and the book borrow/return state machine.
package models

import (
	"fmt"
	"time"
)

// BookStatus is the lifecycle state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusBorrowed  BookStatus = "borrowed"
)

// Book is a catalog entry. BorrowedBy is set if and only if Status is
// StatusBorrowed.
type Book struct {
	ID          string
	Title       Title
	Author      Author
	Description *string
	ISBN        *string
	Categories  []Category
	Status      BookStatus
	BorrowedBy  *string
	// CoverKey is the object-storage key of the cover image, if any.
	CoverKey *string
	// Version is bumped by the repository on every successful save.
	Version   int64
	CreatedAt time.Time
}

// NewBook builds an available book with a fresh id.
func NewBook(title Title, author Author, description, isbn string, category Category) *Book {
	return &Book{
		ID:          NewID(),
		Title:       title,
		Author:      author,
		Description: optional(description),
		ISBN:        optional(isbn),
		Categories:  []Category{category},
		Status:      StatusAvailable,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (b *Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}

// Borrow moves the book from available to borrowed by userID.
func (b *Book) Borrow(userID string) error {
	if !b.IsAvailable() {
		return fmt.Errorf("book %s is not available for borrowing: %w", b.ID, ErrInvalidState)
	}
	b.Status = StatusBorrowed
	b.BorrowedBy = &userID
	return nil
}

// Return moves the book from borrowed back to available.
func (b *Book) Return() error {
	if b.Status != StatusBorrowed {
		return fmt.Errorf("book %s is not borrowed: %w", b.ID, ErrInvalidState)
	}
	b.Status = StatusAvailable
	b.BorrowedBy = nil
	return nil
}

// IsBorrowedBy reports whether userID currently holds the book.
func (b *Book) IsBorrowedBy(userID string) bool {
	return b.BorrowedBy != nil && *b.BorrowedBy == userID
}

// SetDescription replaces the description; an empty value clears it.
func (b *Book) SetDescription(s string) {
	b.Description = optional(s)
}

// SetISBN replaces the ISBN; an empty value clears it.
func (b *Book) SetISBN(s string) {
	b.ISBN = optional(s)
}
