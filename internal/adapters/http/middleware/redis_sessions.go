package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisSessionKeyPrefix = "coachdesk-session||"

// RedisSessionStore keeps sessions in Redis so several server processes share them.
// Expiry is delegated to the key TTL.
type RedisSessionStore struct {
	redisClient *redis.Client
	now         func() time.Time
	// TokenFunc generates session tokens; replaceable in tests.
	TokenFunc func() (string, error)
}

type redisSession struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// NewRedisSessionStore returns a store backed by redisClient.
func NewRedisSessionStore(redisClient *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{
		redisClient: redisClient,
		now:         time.Now,
		TokenFunc:   generateToken,
	}
}

// Create stores a new session with the given lifetime and returns its token.
// PRE: accountID is non-empty; ttl > 0
// POST: the key expires after ttl
func (rs *RedisSessionStore) Create(ctx context.Context, accountID, email string, ttl time.Duration) (string, error) {
	token, err := rs.TokenFunc()
	if err != nil {
		return "", err
	}
	now := rs.now()
	payload, err := json.Marshal(redisSession{
		AccountID: accountID,
		Email:     email,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	if err := rs.redisClient.Set(ctx, redisSessionKeyPrefix+token, string(payload), ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: a missing key yields ok == false and no error
func (rs *RedisSessionStore) Get(ctx context.Context, token string) (Session, bool, error) {
	raw, err := rs.redisClient.Get(ctx, redisSessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	var s redisSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return Session{
		AccountID: s.AccountID,
		Email:     s.Email,
		CreatedAt: time.Unix(s.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(s.ExpiresAt, 0).UTC(),
	}, true, nil
}

// Delete removes a session by token.
func (rs *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := rs.redisClient.Del(ctx, redisSessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
