package httpapi

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes builds the router wrapped in the middleware chain
//
//	recoverPanic → logRequest → rateLimit → enableCORS → authenticate → router
//
// ctx bounds the rate limiter's background cleanup.
func (s *HTTPServer) Routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(s.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(s.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/healthz", s.healthcheckHandler)

	router.HandlerFunc(http.MethodGet, "/books", s.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/books/:id", s.showBookHandler)
	router.HandlerFunc(http.MethodPost, "/books", s.requireAuthenticatedUser(s.createBookHandler))
	router.HandlerFunc(http.MethodPut, "/books/:id", s.requireAuthenticatedUser(s.updateBookHandler))
	router.HandlerFunc(http.MethodDelete, "/books/:id", s.requireAuthenticatedUser(s.deleteBookHandler))
	router.HandlerFunc(http.MethodPost, "/books/:id/borrow", s.requireAuthenticatedUser(s.borrowBookHandler))
	router.HandlerFunc(http.MethodPost, "/books/:id/return", s.requireAuthenticatedUser(s.returnBookHandler))

	if s.covers != nil {
		router.HandlerFunc(http.MethodPut, "/books/:id/cover", s.requireAuthenticatedUser(s.uploadCoverHandler))
		router.HandlerFunc(http.MethodGet, "/books/:id/cover", s.showCoverHandler)
	}

	router.HandlerFunc(http.MethodPost, "/users/register", s.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/users/login", s.loginHandler)
	router.HandlerFunc(http.MethodGet, "/users", s.requireAuthenticatedUser(s.listUsersHandler))
	router.HandlerFunc(http.MethodGet, "/users/:id", s.requireAuthenticatedUser(s.showUserHandler))
	router.HandlerFunc(http.MethodPut, "/users/:id", s.requireAuthenticatedUser(s.updateUserHandler))
	router.HandlerFunc(http.MethodDelete, "/users/:id", s.requireAuthenticatedUser(s.deleteUserHandler))
	router.HandlerFunc(http.MethodGet, "/users/:id/books", s.requireAuthenticatedUser(s.userBooksHandler))

	var h http.Handler = s.authenticate(router)
	h = s.enableCORS(h)
	if s.config.RateLimitEnabled {
		h = s.rateLimit(ctx, h)
	}
	return s.recoverPanic(s.logRequest(h))
}
