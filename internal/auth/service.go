package auth

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/marudy/users-api/internal/logging"
	"github.com/marudy/users-api/internal/user"
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the outward signal never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrMissingSessionToken = errors.New("missing session token")
	ErrInvalidSessionToken = errors.New("invalid session token")

	// ErrSessionNotIndexed is returned by SessionIndex implementations on a
	// cache miss.
	ErrSessionNotIndexed = errors.New("session token not indexed")
)

// emailPattern requires local@domain.tld. net/mail would accept addresses
// without a TLD, which the stored data never contained.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Identity is the authenticated principal attached to a request. It carries
// no credential material.
type Identity struct {
	ID       uuid.UUID
	Username string
	Email    string
}

// Service implements registration, login, and session resolution.
type Service struct {
	users    UserStore
	sessions SessionIndex
	hasher   *Hasher
	logger   *logging.Logger
}

func NewService(users UserStore, sessions SessionIndex, hasher *Hasher, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register creates a new user with a fresh salt and derived password hash.
// The returned user carries no credentials.
func (s *Service) Register(ctx context.Context, email, password, username string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if username == "" {
		return nil, ErrUsernameRequired
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	salt := GenerateSalt()
	passwordHash := s.hasher.Derive(salt, password)

	newUser, err := s.users.Create(ctx, email, username, salt, passwordHash)
	if err != nil {
		// The unique constraint is the real arbiter; the lookup above only
		// narrows the race window.
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies the password and, on success, mints and persists a new
// session token. Any previously issued token stops authenticating.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if password == "" {
		return nil, "", ErrPasswordRequired
	}

	existing, err := s.users.GetByEmailWithCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	expected := s.hasher.Derive(existing.Credentials.Salt, password)
	if !hmac.Equal([]byte(expected), []byte(existing.Credentials.PasswordHash)) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, existing)
	if err != nil {
		return nil, "", err
	}

	sanitized := *existing
	sanitized.Credentials = user.Credentials{}

	return &sanitized, token, nil
}

// issueSession mints a token bound to the user id and persists it, replacing
// any previous session (single active session per user).
func (s *Service) issueSession(ctx context.Context, u *user.User) (string, error) {
	token := s.hasher.Derive(GenerateSalt(), u.ID.String())

	if err := s.users.UpdateSessionToken(ctx, u.ID, token); err != nil {
		return "", fmt.Errorf("failed to persist session token: %w", err)
	}

	// The index is a cache; a failed write only costs a DB lookup later.
	if err := s.sessions.Put(ctx, token, u.ID, u.Credentials.SessionToken); err != nil {
		s.logger.Warn("failed to update session index", "user_id", u.ID, "error", err)
	}

	return token, nil
}

// Authenticate resolves a session token to an identity. The index is
// consulted first; the user row's stored token always has the final word.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingSessionToken
	}

	if userID, err := s.sessions.Get(ctx, token); err == nil {
		u, err := s.users.GetByIDWithCredentials(ctx, userID)
		if err == nil && u.Credentials.SessionToken == token {
			return identityOf(u), nil
		}
		// Stale index entry; fall through to the authoritative lookup.
	} else if !errors.Is(err, ErrSessionNotIndexed) {
		s.logger.Warn("session index lookup failed", "error", err)
	}

	u, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidSessionToken
		}
		return nil, fmt.Errorf("failed to resolve session token: %w", err)
	}

	return identityOf(u), nil
}

func identityOf(u *user.User) *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
