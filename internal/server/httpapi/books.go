package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
	"github.com/dmitrijs2005/bookkeeper/internal/validator"
)

func (s *HTTPServer) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	page := s.readInt(qs, "page", defaultPage, v)
	limit := s.readInt(qs, "limit", defaultLimit, v)
	title := s.readString(qs, "title", "")

	if validatePaging(v, page, limit); !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}

	books, total, err := s.books.List(r.Context(), services.BookQuery{Page: page, Limit: limit, Title: title})
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{"books": newBookResponses(books), "metadata": calculateMetadata(total, page, limit)}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) showBookHandler(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.GetByID(r.Context(), s.readIDParam(r))
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"book": newBookResponse(book)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) createBookHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageBooks(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	var input struct {
		Title       string `json:"title"`
		Author      string `json:"author"`
		Description string `json:"description"`
		ISBN        string `json:"isbn"`
		Category    string `json:"category"`
	}

	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	book, err := s.books.Create(r.Context(), services.BookInput{
		Title:       input.Title,
		Author:      input.Author,
		Description: input.Description,
		ISBN:        input.ISBN,
		Category:    input.Category,
	})
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/books/%s", book.ID))

	if err := s.writeJSON(w, http.StatusCreated, envelope{"book": newBookResponse(book)}, headers); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageBooks(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Author      *string `json:"author"`
		Description *string `json:"description"`
		ISBN        *string `json:"isbn"`
		Category    *string `json:"category"`
	}

	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	book, err := s.books.Update(r.Context(), s.readIDParam(r), services.BookPatch{
		Title:       input.Title,
		Author:      input.Author,
		Description: input.Description,
		ISBN:        input.ISBN,
		Category:    input.Category,
	})
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"book": newBookResponse(book)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageBooks(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	deleted, err := s.books.Delete(r.Context(), s.readIDParam(r))
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if !deleted {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// borrowBookHandler lends a book. The body is optional; user_id defaults to
// the caller.
func (s *HTTPServer) borrowBookHandler(w http.ResponseWriter, r *http.Request) {
	id := contextGetIdentity(r)

	var input struct {
		UserID string `json:"user_id"`
	}

	if r.ContentLength != 0 {
		if err := s.readJSON(w, r, &input); err != nil {
			s.badRequestResponse(w, r, err)
			return
		}
	}
	if input.UserID == "" {
		input.UserID = id.UserID
	}

	if !auth.CanBorrowFor(*id, input.UserID) {
		s.notPermittedResponse(w, r)
		return
	}

	book, err := s.books.Borrow(r.Context(), s.readIDParam(r), input.UserID)
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	s.requestLogger(r).Info(r.Context(), "book borrowed", "book_id", book.ID, "user_id", input.UserID)

	if err := s.writeJSON(w, http.StatusOK, envelope{"book": newBookResponse(book)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// returnBookHandler checks the borrower against the same copy of the book the
// service saves, so a concurrent hand-over cannot slip past the check.
func (s *HTTPServer) returnBookHandler(w http.ResponseWriter, r *http.Request) {
	id := contextGetIdentity(r)

	book, err := s.books.ReturnChecked(r.Context(), s.readIDParam(r), func(b *models.Book) error {
		if b.Status == models.StatusBorrowed && !auth.CanReturn(*id, b.BorrowedBy) {
			return common.ErrorForbidden
		}
		return nil
	})
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	s.requestLogger(r).Info(r.Context(), "book returned", "book_id", book.ID, "user_id", id.UserID)

	if err := s.writeJSON(w, http.StatusOK, envelope{"book": newBookResponse(book)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
