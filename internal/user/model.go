package user

import (
	"time"

	"github.com/google/uuid"
)

// Credentials holds the secret material attached to a user record. The whole
// value is excluded from JSON so no handler can leak it by accident; code
// that needs it must ask the repository for a credential-bearing read.
type Credentials struct {
	Salt         string `json:"-"`
	PasswordHash string `json:"-"`
	// SessionToken is empty until the first successful login and replaced
	// wholesale on every subsequent login.
	SessionToken string `json:"-"`
}

type User struct {
	ID          uuid.UUID   `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Credentials Credentials `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
