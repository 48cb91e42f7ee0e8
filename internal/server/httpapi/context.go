package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
)

type contextKey string

const (
	identityContextKey  = contextKey("identity")
	requestIDContextKey = contextKey("request_id")
)

func contextSetIdentity(r *http.Request, id *auth.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, id)
	return r.WithContext(ctx)
}

// contextGetIdentity returns the caller's identity, or nil for an anonymous
// request.
func contextGetIdentity(r *http.Request) *auth.Identity {
	id, _ := r.Context().Value(identityContextKey).(*auth.Identity)
	return id
}

func contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

func contextGetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
