// Package users persists models.User.
package users

import (
	"context"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

// Repository stores users. Lookups return (nil, nil) on a miss. Save is an
// upsert by id; a clash on the unique email index yields
// common.ErrAlreadyExists.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email models.Email) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) (bool, error)
}
