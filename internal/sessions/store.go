// Package sessions implements the server-side session store backing the
// browser cookie. Sessions live in Redis with no TTL: they end when the
// client discards the cookie or when logout deletes the entry.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mozik-app/mozik/internal/logger"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store maps opaque session ids to user ids.
type Store struct {
	rdb redisClient
}

// New creates a session store backed by the given Redis client.
func New(rdb redisClient) *Store {
	return &Store{rdb: rdb}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Create binds a fresh session id to the user and returns the id.
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(id), userID, 0).Err(); err != nil {
		logger.Log.Errorw("failed to create session", "user_id", userID, "error", err)
		return "", err
	}
	return id, nil
}

// Get returns the user id bound to the session id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, sessionID string) (int64, error) {
	val, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to read session", "error", err)
		return 0, err
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return userID, nil
}

// Destroy removes the session. Destroying an unknown session is not an error.
func (s *Store) Destroy(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}
