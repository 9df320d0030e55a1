package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun table model for the users table. Credential columns live
// here; the domain layer decides what leaves the process.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username     string         `bun:"username,notnull"`
	Email        string         `bun:"email,notnull,unique"`
	Salt         string         `bun:"salt,notnull"`
	PasswordHash string         `bun:"password_hash,notnull"`
	SessionToken sql.NullString `bun:"session_token"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
