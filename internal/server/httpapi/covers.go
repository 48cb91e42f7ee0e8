package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/covers"
)

// uploadCoverHandler hands back a presigned PUT URL for a fresh storage key.
// The key is recorded on the book only once the URL has been issued.
func (s *HTTPServer) uploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageBooks(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	bookID := s.readIDParam(r)
	book, err := s.books.GetByID(r.Context(), bookID)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	key := covers.NewKey(bookID)
	url, err := s.covers.PresignUpload(r.Context(), key)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	book, err = s.books.AttachCover(r.Context(), bookID, key)
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if book == nil {
		s.notFoundResponse(w, r)
		return
	}

	env := envelope{
		"upload_url": url,
		"method":     http.MethodPut,
		"expires_in": int(covers.URLExpiry.Seconds()),
	}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) showCoverHandler(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.GetByID(r.Context(), s.readIDParam(r))
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if book == nil || book.CoverKey == nil {
		s.notFoundResponse(w, r)
		return
	}

	url, err := s.covers.PresignDownload(r.Context(), *book.CoverKey)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"cover_url":  url,
		"expires_in": int(covers.URLExpiry.Seconds()),
	}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
