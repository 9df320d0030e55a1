package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marudy/users-api/internal/logging"
)

type fakeStore struct {
	users []*User

	listErr   error
	updateErr error
	deleteErr error

	deletedID uuid.UUID
}

func (f *fakeStore) List(ctx context.Context) ([]*User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeStore) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, u := range f.users {
		if u.ID == userID {
			cp := *u
			cp.Username = username
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Delete(ctx context.Context, userID uuid.UUID) (*User, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for _, u := range f.users {
		if u.ID == userID {
			f.deletedID = userID
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func newTestHandler(users ...*User) (*Handler, *fakeStore) {
	store := &fakeStore{users: users}
	return NewHandler(store, logging.NewLogger(true)), store
}

// routedRequest injects the chi {id} parameter the way the router would.
func routedRequest(method, target, id, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestList_ReturnsSanitizedUsers(t *testing.T) {
	alice := &User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "a@b.com",
		Credentials: Credentials{
			Salt:         "salty",
			PasswordHash: "hashy",
			SessionToken: "tokeny",
		},
	}
	h, _ := newTestHandler(alice)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "alice", body[0]["username"])

	// Even a record loaded with credentials must serialize without them.
	raw := rec.Body.String()
	assert.NotContains(t, raw, "salty")
	assert.NotContains(t, raw, "hashy")
	assert.NotContains(t, raw, "tokeny")
}

func TestList_Empty(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpdate_Success(t *testing.T) {
	alice := &User{ID: uuid.New(), Username: "alice", Email: "a@b.com"}
	h, _ := newTestHandler(alice)

	rec := httptest.NewRecorder()
	req := routedRequest(http.MethodPut, "/users/"+alice.ID.String(), alice.ID.String(),
		`{"username":"alice2"}`)
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice2", body["username"])
	assert.Equal(t, alice.ID.String(), body["id"])
}

func TestUpdate_MissingUsername(t *testing.T) {
	alice := &User{ID: uuid.New(), Username: "alice"}
	h, _ := newTestHandler(alice)

	rec := httptest.NewRecorder()
	req := routedRequest(http.MethodPut, "/users/"+alice.ID.String(), alice.ID.String(), `{}`)
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "USERNAME_REQUIRED")
}

func TestUpdate_MalformedBody(t *testing.T) {
	alice := &User{ID: uuid.New(), Username: "alice"}
	h, _ := newTestHandler(alice)

	rec := httptest.NewRecorder()
	req := routedRequest(http.MethodPut, "/users/"+alice.ID.String(), alice.ID.String(), `{`)
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST_BODY")
}

func TestDelete_Success(t *testing.T) {
	alice := &User{ID: uuid.New(), Username: "alice", Email: "a@b.com"}
	h, store := newTestHandler(alice)

	rec := httptest.NewRecorder()
	req := routedRequest(http.MethodDelete, "/users/"+alice.ID.String(), alice.ID.String(), "")
	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, store.deletedID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alice", body["username"])
}

func TestDelete_NotFound(t *testing.T) {
	h, _ := newTestHandler()

	id := uuid.NewString()
	rec := httptest.NewRecorder()
	req := routedRequest(http.MethodDelete, "/users/"+id, id, "")
	h.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
