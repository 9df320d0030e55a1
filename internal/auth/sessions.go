package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSessionIndex keeps a token -> user-id mapping in Redis so the common
// authenticated-request path avoids a relational lookup. Entries carry no
// TTL: tokens never expire, they are only replaced.
type RedisSessionIndex struct {
	client *redis.Client
}

func NewRedisSessionIndex(client *redis.Client) *RedisSessionIndex {
	return &RedisSessionIndex{client: client}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Put stores the new token and evicts the previous one in a single pipeline,
// so a replaced token cannot outlive the login that replaced it.
func (r *RedisSessionIndex) Put(ctx context.Context, token string, userID uuid.UUID, prevToken string) error {
	pipe := r.client.Pipeline()

	if prevToken != "" {
		pipe.Del(ctx, sessionKey(prevToken))
	}
	pipe.Set(ctx, sessionKey(token), userID.String(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to index session token: %w", err)
	}

	return nil
}

// Get resolves a token to a user id. A miss is not an authentication
// failure; callers fall back to the database.
func (r *RedisSessionIndex) Get(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotIndexed
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up session token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session index entry: %w", err)
	}

	return userID, nil
}
