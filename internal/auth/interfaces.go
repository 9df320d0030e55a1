package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/marudy/users-api/internal/user"
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, username, salt, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByEmailWithCredentials(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByIDWithCredentials(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetBySessionToken(ctx context.Context, token string) (*user.User, error)
	UpdateSessionToken(ctx context.Context, userID uuid.UUID, token string) error
}

// SessionIndex is a token -> user-id lookup cache in front of the database.
// The database row stays authoritative; implementations may lose entries at
// any time.
type SessionIndex interface {
	// Put records token as the user's live session, evicting prevToken
	// (empty when the user had no session yet).
	Put(ctx context.Context, token string, userID uuid.UUID, prevToken string) error
	// Get resolves a token to a user id. Returns ErrSessionNotIndexed on miss.
	Get(ctx context.Context, token string) (uuid.UUID, error)
}
