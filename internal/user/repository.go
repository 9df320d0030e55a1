package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/marudy/users-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// credentialColumns are stripped from default reads, the same way the rest of
// the service treats Credentials: absent unless explicitly requested.
var credentialColumns = []string{"salt", "password_hash", "session_token"}

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user with freshly derived credentials.
func (r *Repository) Create(ctx context.Context, email, username, salt, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Email:        email,
		Username:     username,
		Salt:         salt,
		PasswordHash: passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List returns all users without credential columns, oldest first.
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		ExcludeColumn(credentialColumns...).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for _, dbu := range dbUsers {
		users = append(users, mapDBUserToModel(dbu))
	}

	return users, nil
}

// GetByEmail retrieves a user by email without credentials.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn(credentialColumns...).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmailWithCredentials retrieves a user by email including salt and
// password hash, for login verification only.
func (r *Repository) GetByEmailWithCredentials(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModelWithCredentials(dbUser), nil
}

// GetByID retrieves a user by ID without credentials.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		ExcludeColumn(credentialColumns...).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByIDWithCredentials retrieves a user by ID including the stored session
// token, so cached token lookups can be verified against the row.
func (r *Repository) GetByIDWithCredentials(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModelWithCredentials(dbUser), nil
}

// GetBySessionToken retrieves the user whose stored session token exactly
// equals the given token. The stored token is included so callers can verify
// it against cached lookups.
func (r *Repository) GetBySessionToken(ctx context.Context, token string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("session_token = ?", token).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by session token: %w", err)
	}

	return mapDBUserToModelWithCredentials(dbUser), nil
}

// UpdateSessionToken replaces the user's session token. Last write wins when
// two logins race; the column simply ends up holding one of the two tokens.
func (r *Repository) UpdateSessionToken(ctx context.Context, userID uuid.UUID, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("session_token = ?", token).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update session token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateUsername changes the user's display name and returns the updated record.
func (r *Repository) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) (*User, error) {
	dbUser := new(database.User)
	result, err := r.db.NewUpdate().
		Model(dbUser).
		Set("username = ?", username).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Returning("id, username, email, created_at, updated_at").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update username: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// Delete removes the user and returns the deleted record.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	result, err := r.db.NewDelete().
		Model(dbUser).
		Where("id = ?", userID).
		Returning("id, username, email, created_at, updated_at").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// mapDBUserToModel converts the table model to the domain model, leaving
// Credentials zero.
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:        dbu.ID,
		Username:  dbu.Username,
		Email:     dbu.Email,
		CreatedAt: dbu.CreatedAt,
		UpdatedAt: dbu.UpdatedAt,
	}
}

func mapDBUserToModelWithCredentials(dbu *database.User) *User {
	u := mapDBUserToModel(dbu)
	u.Credentials = Credentials{
		Salt:         dbu.Salt,
		PasswordHash: dbu.PasswordHash,
		SessionToken: dbu.SessionToken.String,
	}
	return u
}
