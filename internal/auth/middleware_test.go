package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	identity *Identity
	err      error
	calls    int
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func withSessionCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	return req
}

func TestRequireAuth_NoCookie(t *testing.T) {
	authn := &fakeAuthenticator{}
	mw := NewMiddleware(authn)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, authn.calls, "an absent cookie must be rejected before any lookup")
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := NewMiddleware(&fakeAuthenticator{err: ErrInvalidSessionToken})

	rec := httptest.NewRecorder()
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/users", nil), "bogus")

	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_SESSION")
}

func TestRequireAuth_ValidTokenAttachesIdentity(t *testing.T) {
	want := &Identity{ID: uuid.New(), Username: "alice", Email: "a@b.com"}
	mw := NewMiddleware(&fakeAuthenticator{identity: want})

	rec := httptest.NewRecorder()
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/users", nil), "token")

	var got *Identity
	mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, got)
}

// ownerRequest builds a request routed through chi so RequireOwner can read
// the {id} parameter, optionally with an identity already in context.
func ownerRequest(t *testing.T, targetID string, identity *Identity) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/users/"+targetID, strings.NewReader("{}"))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", targetID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if identity != nil {
		ctx = context.WithValue(ctx, identityContextKey, identity)
	}

	return httptest.NewRecorder(), req.WithContext(ctx)
}

func TestRequireOwner_NoIdentity(t *testing.T) {
	mw := NewMiddleware(&fakeAuthenticator{})
	rec, req := ownerRequest(t, uuid.NewString(), nil)

	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireOwner_ForeignID(t *testing.T) {
	mw := NewMiddleware(&fakeAuthenticator{})
	identity := &Identity{ID: uuid.New()}
	rec, req := ownerRequest(t, uuid.NewString(), identity)

	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestRequireOwner_ExactMatchOnly(t *testing.T) {
	mw := NewMiddleware(&fakeAuthenticator{})
	identity := &Identity{ID: uuid.New()}

	// Same UUID but upper-cased: identifiers are opaque strings, so this is
	// a different id as far as ownership is concerned.
	rec, req := ownerRequest(t, strings.ToUpper(identity.ID.String()), identity)

	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireOwner_OwnerPasses(t *testing.T) {
	mw := NewMiddleware(&fakeAuthenticator{})
	identity := &Identity{ID: uuid.New()}
	rec, req := ownerRequest(t, identity.ID.String(), identity)

	called := false
	mw.RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
