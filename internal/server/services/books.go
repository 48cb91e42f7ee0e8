// Package services contains the BookKeeper use cases. Services never issue
// SQL themselves: they load entities through the repository manager, apply
// domain transitions and persist whole entities back.
//
// Lookups report a missing entity as a nil result with a nil error so callers
// can pick the response; only real failures are errors.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

// BookQuery selects one page of the catalog. Page is 1-based.
type BookQuery struct {
	Page  int
	Limit int
	Title string
}

type BookInput struct {
	Title       string
	Author      string
	Description string
	ISBN        string
	Category    string
}

// BookPatch holds the fields to change; nil leaves a field untouched and an
// empty Description or ISBN clears it.
type BookPatch struct {
	Title       *string
	Author      *string
	Description *string
	ISBN        *string
	Category    *string
}

type BookService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewBookService(db *sql.DB, m repomanager.RepositoryManager) *BookService {
	return &BookService{db: db, repomanager: m}
}

func (s *BookService) GetByID(ctx context.Context, id string) (*models.Book, error) {
	return s.repomanager.Books(s.db).FindByID(ctx, id)
}

// List filters the catalog by a case-insensitive title substring, keeps the
// repository order and returns the requested page together with the number
// of books that matched the filter.
func (s *BookService) List(ctx context.Context, q BookQuery) ([]*models.Book, int, error) {
	all, err := s.repomanager.Books(s.db).FindAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := all
	if q.Title != "" {
		needle := strings.ToLower(q.Title)
		filtered = make([]*models.Book, 0, len(all))
		for _, b := range all {
			if strings.Contains(strings.ToLower(string(b.Title)), needle) {
				filtered = append(filtered, b)
			}
		}
	}

	total := len(filtered)
	if q.Page < 1 || q.Limit < 1 {
		return []*models.Book{}, total, nil
	}

	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []*models.Book{}, total, nil
	}
	end := min(start+q.Limit, total)

	return filtered[start:end], total, nil
}

func (s *BookService) Create(ctx context.Context, in BookInput) (*models.Book, error) {
	title, err := models.NewTitle(in.Title)
	if err != nil {
		return nil, err
	}
	author, err := models.NewAuthor(in.Author)
	if err != nil {
		return nil, err
	}

	book := models.NewBook(title, author, in.Description, in.ISBN, models.ParseCategory(in.Category))
	if err := s.repomanager.Books(s.db).Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

func (s *BookService) Update(ctx context.Context, id string, p BookPatch) (*models.Book, error) {
	repo := s.repomanager.Books(s.db)

	book, err := repo.FindByID(ctx, id)
	if err != nil || book == nil {
		return nil, err
	}

	if p.Title != nil {
		if book.Title, err = models.NewTitle(*p.Title); err != nil {
			return nil, err
		}
	}
	if p.Author != nil {
		if book.Author, err = models.NewAuthor(*p.Author); err != nil {
			return nil, err
		}
	}
	if p.Description != nil {
		book.SetDescription(*p.Description)
	}
	if p.ISBN != nil {
		book.SetISBN(*p.ISBN)
	}
	if p.Category != nil {
		book.Categories = []models.Category{models.ParseCategory(*p.Category)}
	}

	if err := repo.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// Delete reports whether the book existed.
func (s *BookService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repomanager.Books(s.db).Delete(ctx, id)
}

// Borrow lends the book to userID. An unknown book yields (nil, nil), a book
// that is not available models.ErrInvalidState, and an unknown user a
// *models.ValidationError on user_id. The state check comes first.
func (s *BookService) Borrow(ctx context.Context, id, userID string) (*models.Book, error) {
	repo := s.repomanager.Books(s.db)

	book, err := repo.FindByID(ctx, id)
	if err != nil || book == nil {
		return nil, err
	}
	if !book.IsAvailable() {
		return nil, book.Borrow(userID)
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewValidationError("user_id", "user does not exist")
	}

	if err := book.Borrow(userID); err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// Return takes the book back. An unknown book yields (nil, nil) and a book
// that is not borrowed models.ErrInvalidState.
func (s *BookService) Return(ctx context.Context, id string) (*models.Book, error) {
	return s.ReturnChecked(ctx, id, nil)
}

// ReturnChecked is Return with a caller-supplied gate evaluated against the
// same copy of the book that gets saved. A non-nil error from check aborts
// the return unchanged.
func (s *BookService) ReturnChecked(ctx context.Context, id string, check func(*models.Book) error) (*models.Book, error) {
	repo := s.repomanager.Books(s.db)

	book, err := repo.FindByID(ctx, id)
	if err != nil || book == nil {
		return nil, err
	}

	if check != nil {
		if err := check(book); err != nil {
			return nil, err
		}
	}

	if err := book.Return(); err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}

// AttachCover records the object-storage key of the book's cover.
func (s *BookService) AttachCover(ctx context.Context, id, key string) (*models.Book, error) {
	repo := s.repomanager.Books(s.db)

	book, err := repo.FindByID(ctx, id)
	if err != nil || book == nil {
		return nil, err
	}

	book.CoverKey = &key
	if err := repo.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil
}
