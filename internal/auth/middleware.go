package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marudy/users-api/internal/httputil"
	"github.com/marudy/users-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const identityContextKey ContextKey = "identity"

// Authenticator resolves a session token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// Middleware guards protected routes.
type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

// RequireAuth resolves the session cookie to an identity and stores it in
// the request context. An absent cookie is rejected before any lookup.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := GetSessionTokenFromCookie(r)
		if token == "" {
			httputil.RespondErrorWithCode(w, "missing session token", httputil.CodeMissingSession, http.StatusBadRequest)
			return
		}

		identity, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidSessionToken) || errors.Is(err, ErrMissingSessionToken) {
				httputil.RespondErrorWithCode(w, "invalid session token", httputil.CodeInvalidSession, http.StatusForbidden)
				return
			}
			logger := logging.GetLoggerFromContext(r.Context())
			logger.Error("session resolution failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to authenticate", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOwner denies any request whose authenticated identity does not own
// the {id} path parameter. The comparison is exact string equality on the
// opaque identifier: no parsing, no case folding. Runs after RequireAuth.
func (m *Middleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok {
			httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
			return
		}

		targetID := chi.URLParam(r, "id")
		if identity.ID.String() != targetID {
			httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetIdentityFromContext extracts the authenticated identity from the
// request context.
func GetIdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok
}
