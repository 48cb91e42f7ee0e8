package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

func (s *HTTPServer) logError(r *http.Request, err error) {
	s.requestLogger(r).Error(r.Context(), "request failed", "error", err.Error())
}

func (s *HTTPServer) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}

	if err := s.writeJSON(w, status, env, nil); err != nil {
		s.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *HTTPServer) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	s.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (s *HTTPServer) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (s *HTTPServer) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	s.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (s *HTTPServer) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	s.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (s *HTTPServer) failedValidationResponse(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	s.errorResponse(w, r, http.StatusUnprocessableEntity, errs)
}

func (s *HTTPServer) conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	s.errorResponse(w, r, http.StatusConflict, message)
}

func (s *HTTPServer) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

func (s *HTTPServer) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusUnauthorized, "invalid authentication credentials")
}

func (s *HTTPServer) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	s.errorResponse(w, r, http.StatusUnauthorized, "invalid or missing authentication token")
}

func (s *HTTPServer) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	s.errorResponse(w, r, http.StatusUnauthorized, "you must be authenticated to access this resource")
}

func (s *HTTPServer) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	s.errorResponse(w, r, http.StatusForbidden, "your user account doesn't have the necessary permissions to access this resource")
}

// serviceErrorResponse maps a use-case failure onto its HTTP status.
func (s *HTTPServer) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError

	switch {
	case errors.As(err, &verr):
		s.failedValidationResponse(w, r, map[string]string{verr.Field: verr.Message})
	case errors.Is(err, models.ErrInvalidState):
		s.badRequestResponse(w, r, err)
	case errors.Is(err, models.ErrDuplicateEmail):
		s.conflictResponse(w, r, "a user with this email address already exists")
	case errors.Is(err, common.ErrVersionConflict):
		s.conflictResponse(w, r, "unable to update the record due to an edit conflict, please try again")
	case errors.Is(err, models.ErrUserHasBorrowedBooks):
		s.conflictResponse(w, r, "the user still has borrowed books")
	case errors.Is(err, common.ErrorUnauthorized):
		s.invalidCredentialsResponse(w, r)
	case errors.Is(err, common.ErrorForbidden):
		s.notPermittedResponse(w, r)
	default:
		s.serverErrorResponse(w, r, err)
	}
}
