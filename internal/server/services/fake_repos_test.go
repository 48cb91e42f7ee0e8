package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/books"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the database. Entities are copied on
// the way in and out, so callers cannot mutate stored state by accident.
type memStore struct {
	mu        sync.Mutex
	books     []*models.Book
	users     []*models.User
	saveErr   error
	findErr   error
	deleteErr error
	// userDeleteErr is returned by the users repository Delete.
	userDeleteErr error
}

type fakeRepoManager struct {
	store *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Books(dbx.DBTX) books.Repository           { return &memBooks{m.store} }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return &memUsers{m.store} }

func cloneBook(b *models.Book) *models.Book {
	c := *b
	c.Categories = append([]models.Category(nil), b.Categories...)
	return &c
}

type memBooks struct{ s *memStore }

func (r *memBooks) FindByID(_ context.Context, id string) (*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	for _, b := range r.s.books {
		if b.ID == id {
			return cloneBook(b), nil
		}
	}
	return nil, nil
}

func (r *memBooks) FindAll(context.Context) ([]*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	out := make([]*models.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		out = append(out, cloneBook(b))
	}
	return out, nil
}

func (r *memBooks) Save(_ context.Context, book *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	for i, b := range r.s.books {
		if b.ID == book.ID {
			if b.Version != book.Version {
				return fmt.Errorf("book %s: %w", book.ID, common.ErrVersionConflict)
			}
			book.Version++
			r.s.books[i] = cloneBook(book)
			return nil
		}
	}
	book.Version++
	r.s.books = append(r.s.books, cloneBook(book))
	return nil
}

func (r *memBooks) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteErr != nil {
		return false, r.s.deleteErr
	}
	for i, b := range r.s.books {
		if b.ID == id {
			r.s.books = append(r.s.books[:i], r.s.books[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memBooks) CountBorrowedBy(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, b := range r.s.books {
		if b.IsBorrowedBy(userID) {
			n++
		}
	}
	return n, nil
}

type memUsers struct{ s *memStore }

func (r *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email models.Email) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindAll(context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r *memUsers) Save(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	for _, u := range r.s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return common.ErrAlreadyExists
		}
	}
	c := *user
	for i, u := range r.s.users {
		if u.ID == user.ID {
			r.s.users[i] = &c
			return nil
		}
	}
	r.s.users = append(r.s.users, &c)
	return nil
}

func (r *memUsers) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userDeleteErr != nil {
		return false, r.s.userDeleteErr
	}
	for i, u := range r.s.users {
		if u.ID == id {
			r.s.users = append(r.s.users[:i], r.s.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}
