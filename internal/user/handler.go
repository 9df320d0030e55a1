package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marudy/users-api/internal/httputil"
	"github.com/marudy/users-api/internal/logging"
)

// Store is the slice of the repository the HTTP handlers need.
type Store interface {
	List(ctx context.Context) ([]*User, error)
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*User, error)
	Delete(ctx context.Context, userID uuid.UUID) (*User, error)
}

// Handler contains HTTP handlers for the user endpoints. Authentication and
// ownership are enforced by middleware before any of these run.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Response represents a user in API responses.
type Response struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateRequest represents the update request body
type UpdateRequest struct {
	Username string `json:"username"`
}

func newResponse(u *User) Response {
	return Response{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// List handles listing all users
// @Summary      List users
// @Description  Return all users. Requires a valid session cookie.
// @Tags         users
// @Produce      json
// @Success      200 {array} Response
// @Failure      400 {object} httputil.ErrorResponse "Missing session cookie"
// @Failure      403 {object} httputil.ErrorResponse "Invalid session"
// @Router       /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.store.List(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	responses := make([]Response, 0, len(users))
	for _, u := range users {
		responses = append(responses, newResponse(u))
	}

	httputil.RespondJSON(w, responses, http.StatusOK)
}

// Update handles updating a user's username
// @Summary      Update a user
// @Description  Change the username of the user identified by id. Only the owner may do this.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        request body UpdateRequest true "New username"
// @Success      200 {object} Response
// @Failure      400 {object} httputil.ErrorResponse "Missing username"
// @Failure      403 {object} httputil.ErrorResponse "Not the resource owner"
// @Router       /users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Username == "" {
		httputil.RespondErrorWithCode(w, "username is required", httputil.CodeUsernameRequired, http.StatusBadRequest)
		return
	}

	// The ownership guard compared this parameter to the identity verbatim,
	// so it is a well-formed id by the time we get here.
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.store.UpdateUsername(r.Context(), userID, req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to update user", "user_id", userID, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user updated", "user_id", userID)

	httputil.RespondJSON(w, newResponse(updated), http.StatusOK)
}

// Delete handles deleting a user
// @Summary      Delete a user
// @Description  Delete the user identified by id. Only the owner may do this.
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} Response
// @Failure      403 {object} httputil.ErrorResponse "Not the resource owner"
// @Router       /users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	deleted, err := h.store.Delete(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete user", "user_id", userID, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user deleted", "user_id", userID)

	httputil.RespondJSON(w, newResponse(deleted), http.StatusOK)
}
