// Package books persists models.Book.
package books

import (
	"context"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// Repository is the storage contract the book and user services depend on.
//
// Lookups return (nil, nil) when the book does not exist. Save is an upsert
// guarded by Book.Version: a stale version yields common.ErrVersionConflict.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Book, error)
	// FindAll returns every book ordered by creation time, then id.
	FindAll(ctx context.Context) ([]*models.Book, error)
	Save(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) (bool, error)
	CountBorrowedBy(ctx context.Context, userID string) (int, error)
}
