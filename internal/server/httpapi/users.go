package httpapi

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
)

func (s *HTTPServer) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	user, err := s.users.Create(r.Context(), services.UserInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/users/%s", user.ID))

	if err := s.writeJSON(w, http.StatusCreated, envelope{"user": newUserResponse(user)}, headers); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	token, err := s.users.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.ExpiresAt,
	}
	if err := s.writeJSON(w, http.StatusOK, env, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanListUsers(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	users, err := s.users.List(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"users": newUserResponses(users)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) showUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.readIDParam(r)
	if !auth.CanAccessUser(*contextGetIdentity(r), userID) {
		s.notPermittedResponse(w, r)
		return
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if user == nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"user": newUserResponse(user)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	id := contextGetIdentity(r)
	userID := s.readIDParam(r)

	if !auth.CanAccessUser(*id, userID) {
		s.notPermittedResponse(w, r)
		return
	}

	var input struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
		IsAdmin  *bool   `json:"is_admin"`
	}

	if err := s.readJSON(w, r, &input); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	if input.IsAdmin != nil && !auth.CanGrantAdmin(*id) {
		s.notPermittedResponse(w, r)
		return
	}

	user, err := s.users.Update(r.Context(), userID, services.UserPatch{
		Name:     input.Name,
		Password: input.Password,
		IsAdmin:  input.IsAdmin,
	})
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if user == nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"user": newUserResponse(user)}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !auth.CanDeleteUser(*contextGetIdentity(r)) {
		s.notPermittedResponse(w, r)
		return
	}

	deleted, err := s.users.Delete(r.Context(), s.readIDParam(r))
	if err != nil {
		s.serviceErrorResponse(w, r, err)
		return
	}
	if !deleted {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"message": "user successfully deleted"}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *HTTPServer) userBooksHandler(w http.ResponseWriter, r *http.Request) {
	userID := s.readIDParam(r)
	if !auth.CanAccessUser(*contextGetIdentity(r), userID) {
		s.notPermittedResponse(w, r)
		return
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	if user == nil {
		s.notFoundResponse(w, r)
		return
	}

	ids, err := s.users.BooksForUser(r.Context(), userID)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, envelope{"book_ids": ids}, nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
